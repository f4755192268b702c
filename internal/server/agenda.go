package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	agendadomain "github.com/smallbiznis/nel3/internal/agenda/domain"
)

func (s *Server) ListAgenda(c *gin.Context) {
	ctx := c.Request.Context()
	if partnerID := partnerFilter(c); partnerID != "" {
		list, err := s.agendaSvc.ListByPartner(ctx, partnerID)
		respond(c, http.StatusOK, list, err)
		return
	}
	list, err := s.agendaSvc.List(ctx)
	respond(c, http.StatusOK, list, err)
}

func (s *Server) UpsertAgendaSlot(c *gin.Context) {
	var req agendadomain.UpsertSlotRequest
	if !bindJSON(c, &req) {
		return
	}
	if scope := partnerScope(c); scope != "" {
		req.PartnerID = scope
	}
	slot, err := s.agendaSvc.Upsert(c.Request.Context(), req)
	respond(c, http.StatusOK, slot, err)
}

func (s *Server) DeleteAgendaSlot(c *gin.Context) {
	removed, err := s.agendaSvc.Delete(c.Request.Context(),
		strings.TrimSpace(c.Param("partnerId")),
		strings.TrimSpace(c.Param("date")),
	)
	respondDeleted(c, removed, err)
}
