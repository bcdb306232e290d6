package models

import "time"

// ChatMessage is a persisted chat message. The id is assigned by the
// database and increases monotonically in insertion order; SentAt is
// assigned by the hub at persistence time, never by the client.
type ChatMessage struct {
	ID             int64     `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	SenderID       string    `db:"sender_id" json:"sender_id"`
	ReceiverID     string    `db:"receiver_id" json:"receiver_id"`
	Content        string    `db:"content" json:"content"`
	SentAt         time.Time `db:"sent_at" json:"sent_at"`
	IsRead         bool      `db:"is_read" json:"is_read"`
}
