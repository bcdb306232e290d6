package presence

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the subset of *websocket.Conn the messaging layer writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Session is one live bidirectional connection bound to a single
// user. It is invalid once the underlying connection closes.
type Session struct {
	id          string
	userID      string
	connectedAt time.Time

	mu   sync.Mutex
	conn Conn
}

// NewSession wraps a connection for the given user.
func NewSession(userID string, conn Conn) *Session {
	return &Session{
		id:          newSessionID(),
		userID:      userID,
		connectedAt: time.Now(),
		conn:        conn,
	}
}

// ID returns the opaque session identifier.
func (s *Session) ID() string { return s.id }

// UserID returns the identity the session is bound to.
func (s *Session) UserID() string { return s.userID }

// ConnectedAt returns when the session was established.
func (s *Session) ConnectedAt() time.Time { return s.connectedAt }

// WriteJSON pushes one JSON frame to the client. Writes are
// serialized; gorilla connections do not support concurrent writers.
func (s *Session) WriteJSON(v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

// Close closes the underlying connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

func newSessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
