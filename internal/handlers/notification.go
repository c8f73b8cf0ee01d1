package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teamtaskhq/teamtask-api/internal/constants"
	"github.com/teamtaskhq/teamtask-api/internal/dto"
	apierrors "github.com/teamtaskhq/teamtask-api/internal/errors"
	"github.com/teamtaskhq/teamtask-api/internal/middleware"
	"github.com/teamtaskhq/teamtask-api/internal/realtime"
	"github.com/teamtaskhq/teamtask-api/internal/repository"
)

// NotificationHandler serves the in-app notification feed and the live
// server-sent event stream.
type NotificationHandler struct {
	notifications repository.NotificationRepository
	hub           *realtime.Hub
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications repository.NotificationRepository, hub *realtime.Hub) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, hub: hub}
}

// List handles GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	notifications, err := h.notifications.ListByUser(userID, constants.NotificationFetchLimit)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": dto.ToNotificationResponses(notifications)})
}

// MarkRead handles PATCH /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	id, err := parseID(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid notification ID")
		return
	}

	if err := h.notifications.MarkRead(id, userID); err != nil {
		apierrors.NotFound(c, "Notification not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// Stream handles GET /api/notifications/stream as server-sent events. The
// subscription lives until the client disconnects.
func (h *NotificationHandler) Stream(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	feed, cancel := h.hub.Subscribe(userID)
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case notification, open := <-feed:
			if !open {
				return false
			}
			c.SSEvent("notification", dto.ToNotificationResponse(&notification))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
