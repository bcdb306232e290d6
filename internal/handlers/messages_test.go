package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

func setupMessageRouter(handler *MessageHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "alice")
		c.Next()
	})
	r.GET("/conversations", handler.ListConversations)
	r.GET("/conversations/:conversation_id/messages", handler.GetConversationMessages)
	r.PATCH("/messages/:message_id/read", handler.MarkMessageRead)
	return r
}

func TestListConversationsSuccess(t *testing.T) {
	conversationRepo := new(mocks.ConversationRepositoryMock)
	handler := NewMessageHandler(conversationRepo, nil)
	router := setupMessageRouter(handler)

	conversationRepo.On("ListConversationsForUser", mock.Anything, "alice").
		Return([]models.Conversation{{ID: "c1", VendorID: "bob", UserID: "alice"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string][]models.Conversation
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp["conversations"], 1)
	assert.Equal(t, "c1", resp["conversations"][0].ID)
	conversationRepo.AssertExpectations(t)
}

func TestListConversationsRepoError(t *testing.T) {
	conversationRepo := new(mocks.ConversationRepositoryMock)
	handler := NewMessageHandler(conversationRepo, nil)
	router := setupMessageRouter(handler)

	conversationRepo.On("ListConversationsForUser", mock.Anything, "alice").
		Return(([]models.Conversation)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	conversationRepo.AssertExpectations(t)
}

func TestGetConversationMessagesSuccess(t *testing.T) {
	conversationRepo := new(mocks.ConversationRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(conversationRepo, messageRepo)
	router := setupMessageRouter(handler)

	conversationRepo.On("GetConversation", mock.Anything, "c1").
		Return(models.Conversation{ID: "c1", VendorID: "bob", UserID: "alice"}, nil).Once()
	messageRepo.On("ListConversationMessages", mock.Anything, "c1").
		Return([]models.ChatMessage{{ID: 1, ConversationID: "c1", SenderID: "alice", ReceiverID: "bob", Content: "hi"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations/c1/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	conversationRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
}

func TestGetConversationMessagesForbiddenForOutsider(t *testing.T) {
	conversationRepo := new(mocks.ConversationRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(conversationRepo, messageRepo)
	router := setupMessageRouter(handler)

	conversationRepo.On("GetConversation", mock.Anything, "c1").
		Return(models.Conversation{ID: "c1", VendorID: "bob", UserID: "carol"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations/c1/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	messageRepo.AssertNotCalled(t, "ListConversationMessages", mock.Anything, mock.Anything)
}

func TestGetConversationMessagesNotFound(t *testing.T) {
	conversationRepo := new(mocks.ConversationRepositoryMock)
	handler := NewMessageHandler(conversationRepo, new(mocks.MessageRepositoryMock))
	router := setupMessageRouter(handler)

	conversationRepo.On("GetConversation", mock.Anything, "missing").
		Return(models.Conversation{}, repositories.ErrConversationNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations/missing/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMarkMessageReadSuccess(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(new(mocks.ConversationRepositoryMock), messageRepo)
	router := setupMessageRouter(handler)

	messageRepo.On("GetMessage", mock.Anything, int64(5)).
		Return(models.ChatMessage{ID: 5, SenderID: "bob", ReceiverID: "alice"}, nil).Once()
	messageRepo.On("MarkRead", mock.Anything, int64(5)).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPatch, "/messages/5/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestMarkMessageReadOnlyReceiver(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(new(mocks.ConversationRepositoryMock), messageRepo)
	router := setupMessageRouter(handler)

	messageRepo.On("GetMessage", mock.Anything, int64(5)).
		Return(models.ChatMessage{ID: 5, SenderID: "alice", ReceiverID: "bob"}, nil).Once()

	req := httptest.NewRequest(http.MethodPatch, "/messages/5/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	messageRepo.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything)
}

func TestMarkMessageReadInvalidID(t *testing.T) {
	handler := NewMessageHandler(new(mocks.ConversationRepositoryMock), new(mocks.MessageRepositoryMock))
	router := setupMessageRouter(handler)

	req := httptest.NewRequest(http.MethodPatch, "/messages/abc/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
