package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/nel3/internal/apperror"
)

func parseOptionalBool(value string) (*bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// queryBool reads a boolean query parameter, aborting with a validation error when malformed.
func queryBool(c *gin.Context, name string) (*bool, bool) {
	v, err := parseOptionalBool(c.Query(name))
	if err != nil {
		AbortWithError(c, apperror.Invalid("request", name, "invalid", "must be true or false"))
		return nil, false
	}
	return v, true
}

// partnerFilter is the partnerId query parameter, forced to the caller's own
// partner for hospital users.
func partnerFilter(c *gin.Context) string {
	if scope := partnerScope(c); scope != "" {
		return scope
	}
	return strings.TrimSpace(c.Query("partnerId"))
}
