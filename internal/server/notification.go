package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	notificationdomain "github.com/smallbiznis/nel3/internal/notification/domain"
)

// ListNotifications supports ?unread=true. Hospital users only see
// notifications addressed to their partner or to everyone.
func (s *Server) ListNotifications(c *gin.Context) {
	unread, ok := queryBool(c, "unread")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var (
		list []notificationdomain.Notification
		err  error
	)
	if scope := partnerScope(c); scope != "" {
		list, err = s.notificationSvc.ListForPartner(ctx, scope)
	} else {
		list, err = s.notificationSvc.List(ctx)
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if unread != nil && *unread {
		filtered := list[:0]
		for _, n := range list {
			if !n.Read {
				filtered = append(filtered, n)
			}
		}
		list = filtered
	}
	respond(c, http.StatusOK, list, nil)
}

func (s *Server) CreateNotification(c *gin.Context) {
	var req notificationdomain.Draft
	if !bindJSON(c, &req) {
		return
	}
	n, err := s.notificationSvc.Create(c.Request.Context(), req)
	respond(c, http.StatusCreated, n, err)
}

func (s *Server) MarkNotificationRead(c *gin.Context) {
	if err := s.notificationSvc.MarkRead(c.Request.Context(), pathID(c)); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkAllNotificationsRead is global, so it is reserved to operators.
func (s *Server) MarkAllNotificationsRead(c *gin.Context) {
	if partnerScope(c) != "" {
		AbortWithError(c, ErrForbidden)
		return
	}
	n, err := s.notificationSvc.MarkAllRead(c.Request.Context())
	respond(c, http.StatusOK, gin.H{"updated": n}, err)
}
