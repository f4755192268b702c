package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/nel3/internal/invoice/domain"
)

func (s *Server) ListInvoices(c *gin.Context) {
	ctx := c.Request.Context()
	if affiliateID := strings.TrimSpace(c.Query("affiliateId")); affiliateID != "" {
		list, err := s.invoiceSvc.ListByAffiliate(ctx, affiliateID)
		respond(c, http.StatusOK, list, err)
		return
	}
	list, err := s.invoiceSvc.List(ctx)
	respond(c, http.StatusOK, list, err)
}

func (s *Server) GetInvoice(c *gin.Context) {
	inv, err := s.invoiceSvc.Get(c.Request.Context(), pathID(c))
	respond(c, http.StatusOK, inv, err)
}

// PrintInvoice serves the printable HTML view.
func (s *Server) PrintInvoice(c *gin.Context) {
	html, err := s.invoiceSvc.Render(c.Request.Context(), pathID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req invoicedomain.CreateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	inv, err := s.invoiceSvc.Create(c.Request.Context(), req)
	respond(c, http.StatusCreated, inv, err)
}

func (s *Server) UpsertInvoice(c *gin.Context) {
	var req invoicedomain.UpsertInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	req.ID = pathID(c)
	inv, err := s.invoiceSvc.Upsert(c.Request.Context(), req)
	respond(c, http.StatusOK, inv, err)
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	removed, err := s.invoiceSvc.Delete(c.Request.Context(), pathID(c))
	respondDeleted(c, removed, err)
}

func (s *Server) ApproveInvoice(c *gin.Context) {
	inv, err := s.invoiceSvc.Approve(c.Request.Context(), pathID(c))
	respond(c, http.StatusOK, inv, err)
}

func (s *Server) RejectInvoice(c *gin.Context) {
	inv, err := s.invoiceSvc.Reject(c.Request.Context(), pathID(c))
	respond(c, http.StatusOK, inv, err)
}
