package ws

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/internal/presence"
	"messaging-service/internal/repositories"
	"messaging-service/internal/telemetry"
)

// Hub validates and persists chat sends, then fans them out to every
// live session of the receiver plus an acknowledgment to the sending
// session. Persistence strictly precedes delivery: no frame leaves
// the hub for a message that is not durably stored.
type Hub struct {
	registry *presence.Registry
	messages repositories.MessageRepository
	emitter  *telemetry.Emitter
	logger   *logrus.Logger
}

// NewHub constructs a Hub.
func NewHub(registry *presence.Registry, messages repositories.MessageRepository, emitter *telemetry.Emitter, logger *logrus.Logger) *Hub {
	return &Hub{
		registry: registry,
		messages: messages,
		emitter:  emitter,
		logger:   logger,
	}
}

// Send stores one message and delivers it. Delivery to the receiver
// is best effort per session; the returned message is the stored
// authoritative copy. Errors are *ValidationError or
// *PersistenceError and are for the caller alone.
func (h *Hub) Send(ctx context.Context, origin *presence.Session, senderID, receiverID, content string) (models.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if err := validateSend(senderID, receiverID, content); err != nil {
		return models.ChatMessage{}, err
	}

	msg, err := h.messages.CreateMessage(ctx, senderID, receiverID, content, time.Now().UTC())
	if err != nil {
		return models.ChatMessage{}, &PersistenceError{Err: err}
	}
	observability.IncMessageStored()
	h.emitter.Emit(ctx, telemetry.EventMessageStored, senderID, originID(origin), map[string]any{
		"message_id":      msg.ID,
		"conversation_id": msg.ConversationID,
		"receiver_id":     receiverID,
	})

	received := models.Event{Type: models.EventMessageReceived, Message: &msg}
	for _, sess := range h.registry.ConnectionsFor(receiverID) {
		h.push(sess, received)
	}

	// The ack goes to the originating session only, not to the
	// sender's other sessions. The sender may already be gone; the
	// message stays stored either way.
	if origin != nil {
		h.push(origin, models.Event{Type: models.EventMessageSent, Message: &msg})
	}

	return msg, nil
}

// push writes one event to a session. A failed write means the
// session died in the lookup race window: evict it and move on.
func (h *Hub) push(sess *presence.Session, event models.Event) {
	if err := sess.WriteJSON(event); err != nil {
		observability.IncDelivery("failed")
		h.logger.WithError(err).WithFields(logrus.Fields{
			"conn_id": sess.ID(),
			"user_id": sess.UserID(),
		}).Warn("websocket write failed, evicting session")
		_ = sess.Close()
		h.registry.Unregister(sess)
		return
	}
	observability.IncDelivery("delivered")
}

func validateSend(senderID, receiverID, content string) error {
	switch {
	case senderID == "":
		return &ValidationError{Reason: "empty sender"}
	case receiverID == "":
		return &ValidationError{Reason: "empty receiver"}
	case senderID == receiverID:
		return &ValidationError{Reason: "sender and receiver are the same user"}
	case content == "":
		return &ValidationError{Reason: "empty content"}
	}
	return nil
}

func originID(origin *presence.Session) string {
	if origin == nil {
		return ""
	}
	return origin.ID()
}
