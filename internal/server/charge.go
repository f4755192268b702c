package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	chargedomain "github.com/smallbiznis/nel3/internal/charge/domain"
)

type chargeTransitionRequest struct {
	Status chargedomain.Status `json:"status" binding:"required"`
}

func (s *Server) ListCharges(c *gin.Context) {
	ctx := c.Request.Context()
	if partnerID := partnerFilter(c); partnerID != "" {
		list, err := s.chargeSvc.ListByPartner(ctx, partnerID)
		respond(c, http.StatusOK, list, err)
		return
	}
	list, err := s.chargeSvc.List(ctx)
	respond(c, http.StatusOK, list, err)
}

func (s *Server) GetCharge(c *gin.Context) {
	ch, err := s.chargeSvc.Get(c.Request.Context(), pathID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !ensurePartnerScope(c, ch.PartnerID) {
		return
	}
	respond(c, http.StatusOK, ch, nil)
}

func (s *Server) CreateCharge(c *gin.Context) {
	var req chargedomain.CreateChargeRequest
	if !bindJSON(c, &req) {
		return
	}
	ch, err := s.chargeSvc.Create(c.Request.Context(), req)
	respond(c, http.StatusCreated, ch, err)
}

func (s *Server) UpsertCharge(c *gin.Context) {
	var req chargedomain.UpsertChargeRequest
	if !bindJSON(c, &req) {
		return
	}
	req.ID = pathID(c)
	ch, err := s.chargeSvc.Upsert(c.Request.Context(), req)
	respond(c, http.StatusOK, ch, err)
}

func (s *Server) DeleteCharge(c *gin.Context) {
	removed, err := s.chargeSvc.Delete(c.Request.Context(), pathID(c))
	respondDeleted(c, removed, err)
}

func (s *Server) TransitionCharge(c *gin.Context) {
	var req chargeTransitionRequest
	if !bindJSON(c, &req) {
		return
	}
	ch, err := s.chargeSvc.Transition(c.Request.Context(), pathID(c), req.Status)
	respond(c, http.StatusOK, ch, err)
}
