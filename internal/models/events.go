package models

// Event types pushed over websocket connections.
const (
	EventMessageReceived      = "message-received"
	EventMessageSent          = "message-sent"
	EventNotificationReceived = "notification-received"
	EventError                = "error"
)

// Event is the frame written to websocket clients.
type Event struct {
	Type         string       `json:"type"`
	Message      *ChatMessage `json:"message,omitempty"`
	Notification string       `json:"notification,omitempty"`
	Error        string       `json:"error,omitempty"`
}
