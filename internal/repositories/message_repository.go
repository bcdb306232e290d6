package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository is the persistence gateway consumed by the hub.
// CreateMessage is a single unit of work: the conversation lookup (or
// lazy creation), the message insert, and the last-activity bump
// either all commit or none do.
type MessageRepository interface {
	CreateMessage(ctx context.Context, senderID, receiverID, content string, sentAt time.Time) (models.ChatMessage, error)
	ListConversationMessages(ctx context.Context, conversationID string) ([]models.ChatMessage, error)
	GetMessage(ctx context.Context, messageID int64) (models.ChatMessage, error)
	MarkRead(ctx context.Context, messageID int64) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage durably stores a message in one transaction, creating
// the conversation for the pair if it does not exist yet.
func (r *MessageRepo) CreateMessage(ctx context.Context, senderID, receiverID, content string, sentAt time.Time) (models.ChatMessage, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.ChatMessage{}, err
	}
	defer tx.Rollback()

	conversationID, err := findOrCreateConversation(ctx, tx, senderID, receiverID)
	if err != nil {
		return models.ChatMessage{}, err
	}

	var msg models.ChatMessage
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO messages (conversation_id, sender_id, receiver_id, content, sent_at)
         VALUES ($1, $2, $3, $4, $5)
         RETURNING id, conversation_id, sender_id, receiver_id, content, sent_at, is_read`,
		conversationID, senderID, receiverID, content, sentAt).
		Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.SentAt, &msg.IsRead)
	if err != nil {
		return models.ChatMessage{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE conversations SET last_message_at=$2 WHERE id=$1`, conversationID, sentAt); err != nil {
		return models.ChatMessage{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.ChatMessage{}, err
	}
	return msg, nil
}

// findOrCreateConversation resolves the conversation for a pair. The
// lookup is symmetric; on first contact the receiver is recorded in
// the vendor slot (customers open conversations with vendors).
func findOrCreateConversation(ctx context.Context, tx *sqlx.Tx, senderID, receiverID string) (string, error) {
	const lookup = `SELECT id FROM conversations
        WHERE (vendor_id=$1 AND user_id=$2) OR (vendor_id=$2 AND user_id=$1)`

	var conversationID string
	err := tx.GetContext(ctx, &conversationID, lookup, senderID, receiverID)
	if err == nil {
		return conversationID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	err = tx.GetContext(ctx, &conversationID,
		`INSERT INTO conversations (id, vendor_id, user_id)
         VALUES ($1, $2, $3)
         ON CONFLICT (LEAST(vendor_id, user_id), GREATEST(vendor_id, user_id)) DO NOTHING
         RETURNING id`,
		uuid.New().String(), receiverID, senderID)
	if errors.Is(err, sql.ErrNoRows) {
		// Lost the insert race to a concurrent first message.
		err = tx.GetContext(ctx, &conversationID, lookup, senderID, receiverID)
	}
	return conversationID, err
}

// ListConversationMessages returns the conversation history in the
// order messages were accepted.
func (r *MessageRepo) ListConversationMessages(ctx context.Context, conversationID string) ([]models.ChatMessage, error) {
	query := `SELECT id, conversation_id, sender_id, receiver_id, content, sent_at, is_read
        FROM messages WHERE conversation_id=$1 ORDER BY id ASC`
	var msgs []models.ChatMessage
	err := r.db.SelectContext(ctx, &msgs, query, conversationID)
	return msgs, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int64) (models.ChatMessage, error) {
	var msg models.ChatMessage
	err := r.db.GetContext(ctx, &msg,
		`SELECT id, conversation_id, sender_id, receiver_id, content, sent_at, is_read FROM messages WHERE id=$1`,
		messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatMessage{}, ErrMessageNotFound
	}
	return msg, err
}

// MarkRead flags a message as read.
func (r *MessageRepo) MarkRead(ctx context.Context, messageID int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET is_read = TRUE WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}
