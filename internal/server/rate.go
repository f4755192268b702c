package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/nel3/internal/apperror"
	ratedomain "github.com/smallbiznis/nel3/internal/rate/domain"
)

func (s *Server) ListRates(c *gin.Context) {
	ctx := c.Request.Context()
	if partnerID := partnerFilter(c); partnerID != "" {
		list, err := s.rateSvc.ListByPartner(ctx, partnerID)
		respond(c, http.StatusOK, list, err)
		return
	}
	list, err := s.rateSvc.ListViews(ctx)
	respond(c, http.StatusOK, list, err)
}

func (s *Server) GetRate(c *gin.Context) {
	r, err := s.rateSvc.Get(c.Request.Context(), pathID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !ensurePartnerScope(c, r.PartnerID) {
		return
	}
	respond(c, http.StatusOK, r, nil)
}

// GetActiveRate resolves ?partnerId=&serviceId= to the rate in force now.
func (s *Server) GetActiveRate(c *gin.Context) {
	partnerID := partnerFilter(c)
	serviceID := strings.TrimSpace(c.Query("serviceId"))
	verr := apperror.NewValidation("rate")
	if partnerID == "" {
		verr.Add("partnerId", "required", "partnerId is required")
	}
	if serviceID == "" {
		verr.Add("serviceId", "required", "serviceId is required")
	}
	if err := verr.OrNil(); err != nil {
		AbortWithError(c, err)
		return
	}
	r, err := s.rateSvc.ActiveFor(c.Request.Context(), partnerID, serviceID)
	respond(c, http.StatusOK, r, err)
}

func (s *Server) CreateRate(c *gin.Context) {
	var req ratedomain.CreateRateRequest
	if !bindJSON(c, &req) {
		return
	}
	r, err := s.rateSvc.Create(c.Request.Context(), req)
	respond(c, http.StatusCreated, r, err)
}

func (s *Server) UpsertRate(c *gin.Context) {
	var req ratedomain.UpsertRateRequest
	if !bindJSON(c, &req) {
		return
	}
	req.ID = pathID(c)
	r, err := s.rateSvc.Upsert(c.Request.Context(), req)
	respond(c, http.StatusOK, r, err)
}

func (s *Server) DeleteRate(c *gin.Context) {
	removed, err := s.rateSvc.Delete(c.Request.Context(), pathID(c))
	respondDeleted(c, removed, err)
}
