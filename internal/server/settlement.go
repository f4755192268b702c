package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	settlementdomain "github.com/smallbiznis/nel3/internal/settlement/domain"
)

func (s *Server) ListSettlements(c *gin.Context) {
	ctx := c.Request.Context()
	if partnerID := partnerFilter(c); partnerID != "" {
		list, err := s.settlementSvc.ListByPartner(ctx, partnerID)
		respond(c, http.StatusOK, list, err)
		return
	}
	list, err := s.settlementSvc.List(ctx)
	respond(c, http.StatusOK, list, err)
}

func (s *Server) GetSettlement(c *gin.Context) {
	st, err := s.settlementSvc.Get(c.Request.Context(), pathID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !ensurePartnerScope(c, st.PartnerID) {
		return
	}
	respond(c, http.StatusOK, st, nil)
}

func (s *Server) CreateSettlement(c *gin.Context) {
	var req settlementdomain.CreateSettlementRequest
	if !bindJSON(c, &req) {
		return
	}
	st, err := s.settlementSvc.Create(c.Request.Context(), req)
	respond(c, http.StatusCreated, st, err)
}

func (s *Server) UpsertSettlement(c *gin.Context) {
	var req settlementdomain.UpsertSettlementRequest
	if !bindJSON(c, &req) {
		return
	}
	req.ID = pathID(c)
	st, err := s.settlementSvc.Upsert(c.Request.Context(), req)
	respond(c, http.StatusOK, st, err)
}

func (s *Server) DeleteSettlement(c *gin.Context) {
	removed, err := s.settlementSvc.Delete(c.Request.Context(), pathID(c))
	respondDeleted(c, removed, err)
}

func (s *Server) ExecuteSettlement(c *gin.Context) {
	st, err := s.settlementSvc.Execute(c.Request.Context(), pathID(c))
	respond(c, http.StatusOK, st, err)
}
