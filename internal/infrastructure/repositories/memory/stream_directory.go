package memory

import (
	"context"
	"sync"

	"github.com/123hpcomsetup-j/streamvibe/internal/core/domain"
)

// StreamDirectory is an in-memory stand-in for the platform's relational
// stream store: it answers whether a stream id is persisted and who owns it.
// With allowUnlisted set, ids nobody registered are waved through, which is
// the single-node development default; registered ids still enforce their
// owner.
type StreamDirectory struct {
	mu            sync.RWMutex
	owners        map[domain.StreamID]domain.IdentityID
	allowUnlisted bool
}

func NewStreamDirectory(allowUnlisted bool) *StreamDirectory {
	return &StreamDirectory{
		owners:        make(map[domain.StreamID]domain.IdentityID),
		allowUnlisted: allowUnlisted,
	}
}

// Put registers a stream and its owning identity.
func (d *StreamDirectory) Put(streamID domain.StreamID, owner domain.IdentityID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.owners[streamID] = owner
}

func (d *StreamDirectory) Delete(streamID domain.StreamID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.owners, streamID)
}

func (d *StreamDirectory) Authorize(ctx context.Context, streamID domain.StreamID, identity domain.IdentityID) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	owner, ok := d.owners[streamID]
	if !ok {
		if d.allowUnlisted {
			return nil
		}
		return domain.ErrNoSuchStream
	}
	if owner != identity {
		return domain.ErrUnauthorizedRole
	}
	return nil
}
