package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ExportStore dumps the whole snapshot for backup or inspection.
func (s *Server) ExportStore(c *gin.Context) {
	snap, err := s.store.Export(c.Request.Context())
	respond(c, http.StatusOK, snap, err)
}

// ResetStore restores the seed data set.
func (s *Server) ResetStore(c *gin.Context) {
	if err := s.store.Reset(c.Request.Context(), true); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
