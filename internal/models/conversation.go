package models

import "time"

// Conversation pairs a customer with a vendor. Created lazily on the
// first message exchanged between the two and never deleted here.
type Conversation struct {
	ID            string     `db:"id" json:"id"`
	VendorID      string     `db:"vendor_id" json:"vendor_id"`
	UserID        string     `db:"user_id" json:"user_id"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	LastMessageAt *time.Time `db:"last_message_at" json:"last_message_at,omitempty"`
}

// HasParticipant reports whether the user belongs to the conversation.
func (c Conversation) HasParticipant(userID string) bool {
	return c.VendorID == userID || c.UserID == userID
}
