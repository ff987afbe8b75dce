package ports

import (
	"context"

	"github.com/123hpcomsetup-j/streamvibe/internal/core/domain"
)

// StreamDirectory is the persistence collaborator consulted before a session
// opens. It answers whether the stream id corresponds to a persisted stream
// the given identity may broadcast.
type StreamDirectory interface {
	Authorize(ctx context.Context, streamID domain.StreamID, identity domain.IdentityID) error
}

// ChatArchive persists chat and tip events asynchronously. Calls are
// fire-and-forget: failures are logged by the caller and never touch
// in-memory session state.
type ChatArchive interface {
	Append(ctx context.Context, ev domain.ChatEvent) error
}

// MediaGateway performs the transport-specific credential exchange on
// start-stream and stop-stream. The core treats the returned credential as
// opaque; only the channel identifier is recorded in the session.
type MediaGateway interface {
	Kind() domain.TransportKind
	Grant(ctx context.Context, streamID domain.StreamID, identity domain.IdentityID) (*domain.StreamCredential, error)
	Revoke(ctx context.Context, streamID domain.StreamID) error
}
