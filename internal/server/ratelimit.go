package server

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	obslogger "github.com/smallbiznis/nel3/internal/observability/logger"
	"github.com/smallbiznis/nel3/internal/ratelimit"
	"go.uber.org/zap"
)

// throttle rejects a client once limiter has no tokens left for its address.
// Limiter errors let the request through.
func (s *Server) throttle(limiter ratelimit.Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		res, err := limiter.Allow(c.Request.Context(), scope+":"+c.ClientIP())
		if err != nil {
			obslogger.FromContext(c.Request.Context()).Warn("rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}
		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
