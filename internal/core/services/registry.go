package services

import (
	"sync"
	"time"

	"github.com/123hpcomsetup-j/streamvibe/internal/core/domain"
	"github.com/123hpcomsetup-j/streamvibe/internal/core/ports"

	"github.com/google/uuid"
)

// Registry maps live connection ids to their Connection record and outbound
// sender. It is the exclusive owner of Connection objects: they are created
// on Register and destroyed on Unregister.
type Registry struct {
	mu      sync.RWMutex
	conns   map[domain.ConnectionID]*domain.Connection
	senders map[domain.ConnectionID]ports.Sender
}

func NewRegistry() *Registry {
	return &Registry{
		conns:   make(map[domain.ConnectionID]*domain.Connection),
		senders: make(map[domain.ConnectionID]ports.Sender),
	}
}

// Register creates a connection with no stream association. It never fails.
func (r *Registry) Register(identity domain.IdentityID, role domain.Role, sender ports.Sender) domain.ConnectionID {
	id := domain.ConnectionID(uuid.NewString())

	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[id] = &domain.Connection{
		ID:          id,
		Identity:    identity,
		Role:        role,
		ConnectedAt: time.Now(),
	}
	r.senders[id] = sender
	return id
}

func (r *Registry) Lookup(id domain.ConnectionID) (*domain.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[id]
	return conn, ok
}

// Unregister removes the connection and returns the removed record, or nil if
// the id was already gone. Idempotent by design: duplicate disconnect events
// are a normal part of transport churn.
func (r *Registry) Unregister(id domain.ConnectionID) *domain.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[id]
	if !ok {
		return nil
	}
	delete(r.conns, id)
	delete(r.senders, id)
	return conn
}

// Send delivers one message to the connection if it is still registered.
// Reports false when the target is gone or the transport write fails.
func (r *Registry) Send(id domain.ConnectionID, v interface{}) bool {
	r.mu.RLock()
	sender, ok := r.senders[id]
	r.mu.RUnlock()

	if !ok {
		return false
	}
	return sender.Send(v) == nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) CountByRole(role domain.Role) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, conn := range r.conns {
		if conn.Role == role {
			n++
		}
	}
	return n
}
