package ws

import (
	"sync"

	"github.com/sirupsen/logrus"

	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/internal/presence"
)

// Broadcaster fans administrative notifications out to every
// connected client. Fire and forget: no persistence, no ack, no
// retry. A session that is not live at call time never sees the
// notification, which is acceptable here and only here.
type Broadcaster struct {
	mu       sync.RWMutex
	sessions map[*presence.Session]struct{}
	logger   *logrus.Logger
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster(logger *logrus.Logger) *Broadcaster {
	return &Broadcaster{
		sessions: make(map[*presence.Session]struct{}),
		logger:   logger,
	}
}

// Add registers a session for notifications.
func (b *Broadcaster) Add(sess *presence.Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[sess] = struct{}{}
}

// Remove drops a session. No-op when unknown.
func (b *Broadcaster) Remove(sess *presence.Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, sess)
}

// Broadcast pushes a notification to every session live at the
// moment of the call.
func (b *Broadcaster) Broadcast(notification string) {
	b.mu.RLock()
	sessions := make([]*presence.Session, 0, len(b.sessions))
	for sess := range b.sessions {
		sessions = append(sessions, sess)
	}
	b.mu.RUnlock()

	event := models.Event{Type: models.EventNotificationReceived, Notification: notification}
	for _, sess := range sessions {
		if err := sess.WriteJSON(event); err != nil {
			b.logger.WithError(err).WithField("conn_id", sess.ID()).Debug("notification write failed")
			_ = sess.Close()
			b.Remove(sess)
		}
	}
	observability.IncNotificationBroadcast()
}
