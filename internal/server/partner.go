package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/nel3/internal/kyc"
	limitdomain "github.com/smallbiznis/nel3/internal/limit/domain"
	partnerdomain "github.com/smallbiznis/nel3/internal/partner/domain"
)

type kycTransitionRequest struct {
	Status kyc.Status `json:"status" binding:"required"`
}

func (s *Server) ListPartners(c *gin.Context) {
	ctx := c.Request.Context()
	if scope := partnerScope(c); scope != "" {
		p, err := s.partnerSvc.Get(ctx, scope)
		respond(c, http.StatusOK, []partnerdomain.Partner{p}, err)
		return
	}

	approvedOnly, ok := queryBool(c, "approved")
	if !ok {
		return
	}
	var (
		list []partnerdomain.Partner
		err  error
	)
	if approvedOnly != nil && *approvedOnly {
		list, err = s.partnerSvc.ListApproved(ctx)
	} else {
		list, err = s.partnerSvc.List(ctx)
	}
	respond(c, http.StatusOK, list, err)
}

func (s *Server) GetPartner(c *gin.Context) {
	id := pathID(c)
	if !ensurePartnerScope(c, id) {
		return
	}
	p, err := s.partnerSvc.Get(c.Request.Context(), id)
	respond(c, http.StatusOK, p, err)
}

func (s *Server) CreatePartner(c *gin.Context) {
	var req partnerdomain.CreatePartnerRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := s.partnerSvc.Create(c.Request.Context(), req)
	respond(c, http.StatusCreated, p, err)
}

func (s *Server) UpsertPartner(c *gin.Context) {
	var req partnerdomain.UpsertPartnerRequest
	if !bindJSON(c, &req) {
		return
	}
	req.ID = pathID(c)
	p, err := s.partnerSvc.Upsert(c.Request.Context(), req)
	respond(c, http.StatusOK, p, err)
}

func (s *Server) DeletePartner(c *gin.Context) {
	removed, err := s.partnerSvc.Delete(c.Request.Context(), pathID(c))
	respondDeleted(c, removed, err)
}

// TransitionPartnerKYC answers 204 when the partner was rejected, since
// rejection removes it.
func (s *Server) TransitionPartnerKYC(c *gin.Context) {
	var req kycTransitionRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	if req.Status == kyc.StatusRejected {
		if err := s.partnerSvc.RejectKYC(ctx, pathID(c)); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
		return
	}
	p, err := s.partnerSvc.TransitionKYC(ctx, pathID(c), req.Status)
	respond(c, http.StatusOK, p, err)
}

func (s *Server) GetPartnerLimit(c *gin.Context) {
	id := pathID(c)
	if !ensurePartnerScope(c, id) {
		return
	}
	usage, err := s.ledger.Usage(c.Request.Context(), id, limitdomain.PeriodDaily)
	respond(c, http.StatusOK, usage, err)
}
