package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/telemetry"
)

// NotificationBroadcaster is the fan-out channel the admin endpoint
// pushes through.
type NotificationBroadcaster interface {
	Broadcast(notification string)
}

// NotificationHandler triggers administrative broadcasts.
type NotificationHandler struct {
	broadcaster NotificationBroadcaster
	emitter     *telemetry.Emitter
}

// NewNotificationHandler builds a NotificationHandler.
func NewNotificationHandler(broadcaster NotificationBroadcaster, emitter *telemetry.Emitter) *NotificationHandler {
	return &NotificationHandler{broadcaster: broadcaster, emitter: emitter}
}

// PostNotification broadcasts a notification to every connected
// client. Admin only; clients not connected right now never see it.
func (h *NotificationHandler) PostNotification(c *gin.Context) {
	if !c.GetBool("isAdmin") {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		return
	}

	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty message"})
		return
	}

	h.broadcaster.Broadcast(message)
	h.emitter.Emit(c.Request.Context(), telemetry.EventNotificationBroadcast, c.GetString("userID"), "", map[string]any{
		"length": len(message),
	})

	c.Status(http.StatusAccepted)
}
