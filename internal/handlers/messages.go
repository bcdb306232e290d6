package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/repositories"
)

// MessageHandler serves conversation history and read receipts. Live
// delivery happens over the websocket path; these endpoints are how
// clients catch up on messages they were offline for.
type MessageHandler struct {
	conversationRepo repositories.ConversationRepository
	messageRepo      repositories.MessageRepository
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(conversationRepo repositories.ConversationRepository, messageRepo repositories.MessageRepository) *MessageHandler {
	return &MessageHandler{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
	}
}

// ListConversations returns the authenticated user's conversations,
// most recent activity first.
func (h *MessageHandler) ListConversations(c *gin.Context) {
	userID := c.GetString("userID")

	convs, err := h.conversationRepo.ListConversationsForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

// GetConversationMessages returns the ordered history of one
// conversation, participants only.
func (h *MessageHandler) GetConversationMessages(c *gin.Context) {
	conversationID := c.Param("conversation_id")
	userID := c.GetString("userID")

	conv, err := h.conversationRepo.GetConversation(c.Request.Context(), conversationID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrConversationNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "conversation not found"})
		return
	}
	if !conv.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation participant"})
		return
	}

	msgs, err := h.messageRepo.ListConversationMessages(c.Request.Context(), conversationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// MarkMessageRead flags a message as read. Only the receiver may
// acknowledge a message.
func (h *MessageHandler) MarkMessageRead(c *gin.Context) {
	messageID, err := strconv.ParseInt(c.Param("message_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	userID := c.GetString("userID")
	msg, err := h.messageRepo.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "message not found"})
		return
	}
	if msg.ReceiverID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the receiver can mark a message read"})
		return
	}

	if err := h.messageRepo.MarkRead(c.Request.Context(), messageID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not mark message read"})
		return
	}

	c.Status(http.StatusNoContent)
}
