package server

import (
	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/nel3/internal/observability/context"
	sessiondomain "github.com/smallbiznis/nel3/internal/session/domain"
)

const (
	contextUserKey  = "session_user"
	contextTokenKey = "session_token"
)

// AuthRequired resolves the session user and records it as the command actor.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := s.sessionSvc.Verify(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserKey, user)
		c.Set(contextTokenKey, token)
		c.Request = c.Request.WithContext(obscontext.WithActor(c.Request.Context(), string(user.Role), user.ID))
		c.Next()
	}
}

func currentUser(c *gin.Context) (sessiondomain.User, bool) {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return sessiondomain.User{}, false
	}
	user, ok := v.(sessiondomain.User)
	return user, ok
}
