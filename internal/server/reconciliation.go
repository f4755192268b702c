package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	reconciliationdomain "github.com/smallbiznis/nel3/internal/reconciliation/domain"
)

type addReconciliationRequest struct {
	Items []reconciliationdomain.NewItem `json:"items" binding:"required"`
}

type importReconciliationRequest struct {
	Text string `json:"text" binding:"required"`
	reconciliationdomain.ParseOptions
}

func (s *Server) ListReconciliation(c *gin.Context) {
	list, err := s.reconciliationSvc.ListViews(c.Request.Context())
	respond(c, http.StatusOK, list, err)
}

func (s *Server) GetReconciliationItem(c *gin.Context) {
	item, err := s.reconciliationSvc.Get(c.Request.Context(), pathID(c))
	respond(c, http.StatusOK, item, err)
}

func (s *Server) AddReconciliationItems(c *gin.Context) {
	var req addReconciliationRequest
	if !bindJSON(c, &req) {
		return
	}
	items, err := s.reconciliationSvc.AddItems(c.Request.Context(), req.Items)
	respond(c, http.StatusCreated, items, err)
}

// ImportReconciliation parses a bank feed pasted as text.
func (s *Server) ImportReconciliation(c *gin.Context) {
	var req importReconciliationRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := s.reconciliationSvc.Import(c.Request.Context(), req.Text, req.ParseOptions)
	respond(c, http.StatusCreated, result, err)
}

func (s *Server) AutoMatchReconciliation(c *gin.Context) {
	summary, err := s.reconciliationSvc.AutoMatch(c.Request.Context())
	respond(c, http.StatusOK, summary, err)
}

func (s *Server) DeleteReconciliationItem(c *gin.Context) {
	removed, err := s.reconciliationSvc.Delete(c.Request.Context(), pathID(c))
	respondDeleted(c, removed, err)
}
