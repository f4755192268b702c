package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetOverview(c *gin.Context) {
	ov, err := s.overviewSvc.Get(c.Request.Context(), partnerFilter(c))
	respond(c, http.StatusOK, ov, err)
}
