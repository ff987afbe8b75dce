package services

import (
	"sync"

	"github.com/123hpcomsetup-j/streamvibe/internal/core/domain"
)

// SessionTable holds one StreamSession per currently-live stream. Membership
// mutations go through the table so every change is a single indivisible step
// relative to concurrent readers.
type SessionTable struct {
	mu              sync.RWMutex
	sessions        map[domain.StreamID]*domain.StreamSession
	historyCapacity int
}

func NewSessionTable(historyCapacity int) *SessionTable {
	return &SessionTable{
		sessions:        make(map[domain.StreamID]*domain.StreamSession),
		historyCapacity: historyCapacity,
	}
}

// Open creates a session with an empty viewer set and empty history. It fails
// with ErrAlreadyLive when any session exists for the stream id; staleness
// policy (auto-closing a session whose creator is gone) is the coordinator's
// call, not the table's.
func (t *SessionTable) Open(id domain.StreamID, creator domain.ConnectionID, transport domain.TransportKind, channel string) (*domain.StreamSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.sessions[id]; exists {
		return nil, domain.ErrAlreadyLive
	}
	sess := domain.NewStreamSession(id, creator, transport, channel, t.historyCapacity)
	t.sessions[id] = sess
	return sess, nil
}

// Close removes the session and returns it so the caller can notify its
// members. Returns nil when no session exists.
func (t *SessionTable) Close(id domain.StreamID) *domain.StreamSession {
	t.mu.Lock()
	defer t.mu.Unlock()

	sess, ok := t.sessions[id]
	if !ok {
		return nil
	}
	delete(t.sessions, id)
	return sess
}

func (t *SessionTable) Get(id domain.StreamID) (*domain.StreamSession, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	sess, ok := t.sessions[id]
	return sess, ok
}

// FindByCreator returns the session whose creator connection matches, if any.
func (t *SessionTable) FindByCreator(creator domain.ConnectionID) (*domain.StreamSession, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, sess := range t.sessions {
		if sess.CreatorConn == creator {
			return sess, true
		}
	}
	return nil, false
}

// AddViewer adds the viewer to the session's set. Re-adding an existing
// member reports added=false and is not an error.
func (t *SessionTable) AddViewer(id domain.StreamID, viewer domain.ConnectionID) (added bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sess, ok := t.sessions[id]
	if !ok {
		return false, domain.ErrNoSuchStream
	}
	return sess.AddViewer(viewer), nil
}

// RemoveViewer is a no-op for non-members, which makes duplicate leave and
// disconnect events harmless.
func (t *SessionTable) RemoveViewer(id domain.StreamID, viewer domain.ConnectionID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	sess, ok := t.sessions[id]
	if !ok {
		return false
	}
	return sess.RemoveViewer(viewer)
}

func (t *SessionTable) Live() []*domain.StreamSession {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*domain.StreamSession, 0, len(t.sessions))
	for _, sess := range t.sessions {
		out = append(out, sess)
	}
	return out
}

func (t *SessionTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}
