package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"messaging-service/internal/identity"
	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/internal/presence"
	"messaging-service/internal/telemetry"
)

// WebSocketHandler owns the websocket endpoint: it resolves the
// connection's identity, registers the session for chat delivery and
// notifications, and runs the inbound read loop.
type WebSocketHandler struct {
	hub         *Hub
	registry    *presence.Registry
	broadcaster *Broadcaster
	resolver    identity.Resolver
	emitter     *telemetry.Emitter
	logger      *logrus.Logger
}

// NewWebSocketHandler constructs a WebSocketHandler.
func NewWebSocketHandler(hub *Hub, registry *presence.Registry, broadcaster *Broadcaster, resolver identity.Resolver, emitter *telemetry.Emitter, logger *logrus.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		registry:    registry,
		broadcaster: broadcaster,
		resolver:    resolver,
		emitter:     emitter,
		logger:      logger,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type sendFrame struct {
	Type       string `json:"type"`
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
}

// Handle upgrades the connection and registers the client. A
// connection whose identity cannot be resolved is refused before the
// upgrade and never reaches the hub.
func (h *WebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("messaging-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := bearerToken(c)
	id, err := h.resolver.Resolve(ctx, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	sess := presence.NewSession(id.UserID, conn)
	h.registry.Register(sess)
	h.broadcaster.Add(sess)

	observability.IncWSActive()
	observability.IncWSEvent(telemetry.EventWSConnect)
	h.emitter.Emit(ctx, telemetry.EventWSConnect, id.UserID, sess.ID(), map[string]any{
		"ip":         observability.IPFromRequest(c.Request),
		"request_id": observability.RequestIDFromRequest(c.Request),
	})
	h.logger.WithFields(logrus.Fields{
		"user_id": id.UserID,
		"conn_id": sess.ID(),
	}).Info("websocket connected")

	// The request context dies when this handler returns; the read
	// loop and everything it persists must outlive the handshake.
	go h.readLoop(context.WithoutCancel(ctx), sess, conn)
}

// readLoop consumes inbound frames until the connection dies, then
// tears the session down regardless of disconnect cause.
func (h *WebSocketHandler) readLoop(ctx context.Context, sess *presence.Session, conn *websocket.Conn) {
	var closeReason string
	defer func() {
		h.registry.Unregister(sess)
		h.broadcaster.Remove(sess)
		observability.DecWSActive()
		observability.IncWSEvent(telemetry.EventWSDisconnect)
		h.emitter.Emit(ctx, telemetry.EventWSDisconnect, sess.UserID(), sess.ID(), map[string]any{
			"duration_ms": time.Since(sess.ConnectedAt()).Milliseconds(),
			"reason":      closeReason,
		})
		h.logger.WithFields(logrus.Fields{
			"user_id": sess.UserID(),
			"conn_id": sess.ID(),
		}).Info("websocket disconnected")
		conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent(telemetry.EventWSError)
				h.emitter.Emit(ctx, telemetry.EventWSError, sess.UserID(), sess.ID(), map[string]any{
					"reason": closeReason,
				})
			}
			return
		}

		var frame sendFrame
		if err := json.Unmarshal(payload, &frame); err != nil || frame.Type != "send" {
			_ = sess.WriteJSON(models.Event{Type: models.EventError, Error: "unrecognized frame"})
			continue
		}

		h.handleSend(ctx, sess, frame)
	}
}

// handleSend routes one inbound send through the hub. The sender is
// always the session's resolved identity; failures go back to this
// session only, so the sender always sees either the ack or an
// explicit error.
func (h *WebSocketHandler) handleSend(ctx context.Context, sess *presence.Session, frame sendFrame) {
	_, err := h.hub.Send(ctx, sess, sess.UserID(), frame.ReceiverID, frame.Content)
	if err == nil {
		return
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		_ = sess.WriteJSON(models.Event{Type: models.EventError, Error: verr.Error()})
		return
	}

	h.logger.WithError(err).WithFields(logrus.Fields{
		"user_id": sess.UserID(),
		"conn_id": sess.ID(),
	}).Error("send failed")
	_ = sess.WriteJSON(models.Event{Type: models.EventError, Error: "message could not be stored"})
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	return c.Query("token")
}
