package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type nopConn struct{}

func (nopConn) WriteMessage(int, []byte) error { return nil }
func (nopConn) Close() error                   { return nil }

func TestRegisterThenUnregisterLeavesNoSessions(t *testing.T) {
	registry := NewRegistry()
	sess := NewSession("u1", nopConn{})

	registry.Register(sess)
	require.Len(t, registry.ConnectionsFor("u1"), 1)

	registry.Unregister(sess)
	require.Empty(t, registry.ConnectionsFor("u1"))
}

func TestRegisterIsIdempotent(t *testing.T) {
	registry := NewRegistry()
	sess := NewSession("u1", nopConn{})

	registry.Register(sess)
	registry.Register(sess)
	require.Len(t, registry.ConnectionsFor("u1"), 1)
}

func TestMultipleSessionsPerUser(t *testing.T) {
	registry := NewRegistry()
	s1 := NewSession("u1", nopConn{})
	s2 := NewSession("u1", nopConn{})

	registry.Register(s1)
	registry.Register(s2)
	require.ElementsMatch(t, []*Session{s1, s2}, registry.ConnectionsFor("u1"))

	registry.Unregister(s1)
	require.Equal(t, []*Session{s2}, registry.ConnectionsFor("u1"))
}

func TestUnregisterUnknownSessionIsNoOp(t *testing.T) {
	registry := NewRegistry()
	sess := NewSession("u1", nopConn{})

	registry.Unregister(sess)
	registry.Unregister(sess)
	require.Empty(t, registry.ConnectionsFor("u1"))
}

func TestConnectionsForOfflineUserIsEmpty(t *testing.T) {
	registry := NewRegistry()
	require.Empty(t, registry.ConnectionsFor("nobody"))
}

func TestConcurrentChurn(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		userID := fmt.Sprintf("user-%d", i%8)
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sess := NewSession(userID, nopConn{})
				registry.Register(sess)
				registry.ConnectionsFor(userID)
				registry.Unregister(sess)
			}
		}(userID)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		require.Empty(t, registry.ConnectionsFor(fmt.Sprintf("user-%d", i)))
	}
}
