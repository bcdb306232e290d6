package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository abstracts conversation reads.
type ConversationRepository interface {
	GetConversation(ctx context.Context, conversationID string) (models.Conversation, error)
	ListConversationsForUser(ctx context.Context, userID string) ([]models.Conversation, error)
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// GetConversation fetches a conversation by id.
func (r *ConversationRepo) GetConversation(ctx context.Context, conversationID string) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT id, vendor_id, user_id, created_at, last_message_at FROM conversations WHERE id=$1`,
		conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// ListConversationsForUser returns the user's conversations, most
// recent activity first.
func (r *ConversationRepo) ListConversationsForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	query := `SELECT id, vendor_id, user_id, created_at, last_message_at FROM conversations
        WHERE vendor_id=$1 OR user_id=$1
        ORDER BY COALESCE(last_message_at, created_at) DESC`
	var convs []models.Conversation
	err := r.db.SelectContext(ctx, &convs, query, userID)
	return convs, err
}
