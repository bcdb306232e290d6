package presence

import (
	"hash/fnv"
	"sync"
)

const shardCount = 32

// Registry maps user ids to their live sessions. A user may have
// zero, one, or many concurrent sessions. State is sharded by user id
// so unrelated users' connect/disconnect traffic does not serialize
// on a single lock.
//
// Lookups race with teardown by design: a session returned by
// ConnectionsFor may disconnect before the caller writes to it, and
// that write failing is the caller's signal, not the registry's.
type Registry struct {
	shards [shardCount]shard
}

type shard struct {
	mu    sync.RWMutex
	users map[string]map[*Session]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].users = make(map[string]map[*Session]struct{})
	}
	return r
}

// Register adds the session to its user's set. Idempotent.
func (r *Registry) Register(s *Session) {
	sh := r.shardFor(s.UserID())
	sh.mu.Lock()
	defer sh.mu.Unlock()

	set, ok := sh.users[s.UserID()]
	if !ok {
		set = make(map[*Session]struct{})
		sh.users[s.UserID()] = set
	}
	set[s] = struct{}{}
}

// Unregister removes the session from its user's set, dropping the
// set when it empties. A no-op for unknown sessions, so disconnecting
// twice is safe.
func (r *Registry) Unregister(s *Session) {
	sh := r.shardFor(s.UserID())
	sh.mu.Lock()
	defer sh.mu.Unlock()

	set, ok := sh.users[s.UserID()]
	if !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(sh.users, s.UserID())
	}
}

// ConnectionsFor returns a snapshot of the user's live sessions.
// Empty for offline users; never an error.
func (r *Registry) ConnectionsFor(userID string) []*Session {
	sh := r.shardFor(userID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	set := sh.users[userID]
	if len(set) == 0 {
		return nil
	}
	sessions := make([]*Session, 0, len(set))
	for s := range set {
		sessions = append(sessions, s)
	}
	return sessions
}

func (r *Registry) shardFor(userID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return &r.shards[h.Sum32()%shardCount]
}
