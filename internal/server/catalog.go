package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListServices(c *gin.Context) {
	list, err := s.catalogSvc.List(c.Request.Context())
	respond(c, http.StatusOK, list, err)
}

func (s *Server) GetService(c *gin.Context) {
	svc, err := s.catalogSvc.Get(c.Request.Context(), pathID(c))
	respond(c, http.StatusOK, svc, err)
}
