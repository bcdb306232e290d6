package telemetry

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Publisher is the narrow bus interface the emitter publishes to.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// Event names emitted by the messaging subsystem.
const (
	EventWSConnect             = "ws_connect"
	EventWSDisconnect          = "ws_disconnect"
	EventWSError               = "ws_error"
	EventMessageStored         = "message_stored"
	EventNotificationBroadcast = "notification_broadcast"
)

// EventEnvelope is the payload published for every messaging event.
type EventEnvelope struct {
	SchemaVersion int            `json:"schema_version"`
	EventName     string         `json:"event_name"`
	OccurredAt    string         `json:"occurred_at"`
	Service       string         `json:"service"`
	Environment   string         `json:"environment"`
	UserID        string         `json:"user_id,omitempty"`
	ConnID        string         `json:"conn_id,omitempty"`
	Payload       map[string]any `json:"payload,omitempty"`
}

// Emitter publishes messaging lifecycle events. A nil emitter is
// valid and emits nothing.
type Emitter struct {
	publisher   Publisher
	service     string
	environment string
	logger      *logrus.Logger
}

// NewEmitter builds an Emitter.
func NewEmitter(publisher Publisher, service, environment string, logger *logrus.Logger) *Emitter {
	return &Emitter{
		publisher:   publisher,
		service:     service,
		environment: environment,
		logger:      logger,
	}
}

// Emit publishes one event, best effort.
func (e *Emitter) Emit(ctx context.Context, eventName, userID, connID string, payload map[string]any) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := EventEnvelope{
		SchemaVersion: 1,
		EventName:     eventName,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		UserID:        userID,
		ConnID:        connID,
		Payload:       payload,
	}

	if err := e.publisher.Publish(ctx, "messaging."+eventName, envelope); err != nil {
		e.logger.WithError(err).WithField("event_name", eventName).Warn("event publish failed")
	}
}
