package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	advancedomain "github.com/smallbiznis/nel3/internal/advance/domain"
)

type approveAdvanceRequest struct {
	RatePct *decimal.Decimal `json:"ratePct"`
}

func (s *Server) ListAdvances(c *gin.Context) {
	ctx := c.Request.Context()
	if partnerID := partnerFilter(c); partnerID != "" {
		list, err := s.advanceSvc.ListByPartner(ctx, partnerID)
		respond(c, http.StatusOK, list, err)
		return
	}
	list, err := s.advanceSvc.List(ctx)
	respond(c, http.StatusOK, list, err)
}

func (s *Server) GetAdvance(c *gin.Context) {
	a, err := s.advanceSvc.Get(c.Request.Context(), pathID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !ensurePartnerScope(c, a.PartnerID) {
		return
	}
	respond(c, http.StatusOK, a, nil)
}

// CreateAdvance binds hospital users to their own partner.
func (s *Server) CreateAdvance(c *gin.Context) {
	var req advancedomain.CreateAdvanceRequest
	if !bindJSON(c, &req) {
		return
	}
	if scope := partnerScope(c); scope != "" {
		req.PartnerID = scope
	}
	a, err := s.advanceSvc.Create(c.Request.Context(), req)
	respond(c, http.StatusCreated, a, err)
}

func (s *Server) UpsertAdvance(c *gin.Context) {
	var req advancedomain.UpsertAdvanceRequest
	if !bindJSON(c, &req) {
		return
	}
	req.ID = pathID(c)
	a, err := s.advanceSvc.Upsert(c.Request.Context(), req)
	respond(c, http.StatusOK, a, err)
}

func (s *Server) DeleteAdvance(c *gin.Context) {
	removed, err := s.advanceSvc.Delete(c.Request.Context(), pathID(c))
	respondDeleted(c, removed, err)
}

// ApproveAdvance accepts an optional {"ratePct": ...} body.
func (s *Server) ApproveAdvance(c *gin.Context) {
	var req approveAdvanceRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	a, err := s.advanceSvc.Approve(c.Request.Context(), advancedomain.ApproveAdvanceRequest{ID: pathID(c), RatePct: req.RatePct})
	respond(c, http.StatusOK, a, err)
}

func (s *Server) RejectAdvance(c *gin.Context) {
	a, err := s.advanceSvc.Reject(c.Request.Context(), pathID(c))
	respond(c, http.StatusOK, a, err)
}

func (s *Server) SettleAdvance(c *gin.Context) {
	a, err := s.advanceSvc.Settle(c.Request.Context(), pathID(c))
	respond(c, http.StatusOK, a, err)
}
