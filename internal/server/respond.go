package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func respond(c *gin.Context, status int, data any, err error) {
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(status, gin.H{"data": data})
}

func respondDeleted(c *gin.Context, removed bool, err error) {
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !removed {
		AbortWithError(c, ErrNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		AbortWithError(c, invalidRequestError(err))
		return false
	}
	return true
}

func pathID(c *gin.Context) string {
	return strings.TrimSpace(c.Param("id"))
}
