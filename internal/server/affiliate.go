package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	affiliatedomain "github.com/smallbiznis/nel3/internal/affiliate/domain"
	"github.com/smallbiznis/nel3/internal/kyc"
)

func (s *Server) ListAffiliates(c *gin.Context) {
	ctx := c.Request.Context()
	if partnerID := strings.TrimSpace(c.Query("partnerId")); partnerID != "" {
		list, err := s.affiliateSvc.ListByPartner(ctx, partnerID)
		respond(c, http.StatusOK, list, err)
		return
	}
	list, err := s.affiliateSvc.List(ctx)
	respond(c, http.StatusOK, list, err)
}

func (s *Server) GetAffiliate(c *gin.Context) {
	a, err := s.affiliateSvc.Get(c.Request.Context(), pathID(c))
	respond(c, http.StatusOK, a, err)
}

// CreateAffiliate uses the simplified flow when ?simplified=true.
func (s *Server) CreateAffiliate(c *gin.Context) {
	var req affiliatedomain.CreateAffiliateRequest
	if !bindJSON(c, &req) {
		return
	}
	simplified, ok := queryBool(c, "simplified")
	if !ok {
		return
	}
	var (
		a   affiliatedomain.Affiliate
		err error
	)
	if simplified != nil && *simplified {
		a, err = s.affiliateSvc.CreateSimplified(c.Request.Context(), req)
	} else {
		a, err = s.affiliateSvc.Create(c.Request.Context(), req)
	}
	respond(c, http.StatusCreated, a, err)
}

func (s *Server) UpsertAffiliate(c *gin.Context) {
	var req affiliatedomain.UpsertAffiliateRequest
	if !bindJSON(c, &req) {
		return
	}
	req.ID = pathID(c)
	a, err := s.affiliateSvc.Upsert(c.Request.Context(), req)
	respond(c, http.StatusOK, a, err)
}

func (s *Server) DeleteAffiliate(c *gin.Context) {
	removed, err := s.affiliateSvc.Delete(c.Request.Context(), pathID(c))
	respondDeleted(c, removed, err)
}

func (s *Server) TransitionAffiliateKYC(c *gin.Context) {
	var req kycTransitionRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	if req.Status == kyc.StatusRejected {
		if err := s.affiliateSvc.RejectKYC(ctx, pathID(c)); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
		return
	}
	a, err := s.affiliateSvc.TransitionKYC(ctx, pathID(c), req.Status)
	respond(c, http.StatusOK, a, err)
}
