package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	sessiondomain "github.com/smallbiznis/nel3/internal/session/domain"
)

func (s *Server) authorize(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), user, strings.TrimSpace(object), strings.TrimSpace(action)); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// partnerScope returns the partner a hospital user is bound to. Operators
// are unscoped and get "".
func partnerScope(c *gin.Context) string {
	user, ok := currentUser(c)
	if !ok || user.Role != sessiondomain.RoleHospital {
		return ""
	}
	return user.PartnerID
}

// ensurePartnerScope refuses access to another partner's record.
func ensurePartnerScope(c *gin.Context, partnerID string) bool {
	scope := partnerScope(c)
	if scope == "" || scope == partnerID {
		return true
	}
	AbortWithError(c, ErrForbidden)
	return false
}
