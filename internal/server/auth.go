package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	obslogger "github.com/smallbiznis/nel3/internal/observability/logger"
	sessiondomain "github.com/smallbiznis/nel3/internal/session/domain"
	"go.uber.org/zap"
)

func (s *Server) SignIn(c *gin.Context) {
	var req sessiondomain.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError(err))
		return
	}

	sess, err := s.sessionSvc.SignIn(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, sess.Token, sess.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{"data": sess})
}

func (s *Server) CurrentSession(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}

// SignOut always clears the cookie; an unknown or expired token is not an error.
func (s *Server) SignOut(c *gin.Context) {
	ctx := c.Request.Context()
	if token, ok := s.sessions.ReadToken(c); ok {
		if err := s.sessionSvc.SignOut(ctx, token); err != nil && !errors.Is(err, sessiondomain.ErrUnauthenticated) {
			obslogger.WithContext(ctx, s.log).Warn("session not revoked", zap.Error(err))
		}
	}
	s.sessions.Clear(c)
	c.Status(http.StatusNoContent)
}
