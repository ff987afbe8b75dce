package media

import (
	"context"
	"fmt"
	"sync"

	"github.com/123hpcomsetup-j/streamvibe/internal/core/domain"

	"github.com/google/uuid"
)

// IngestGateway covers the RTMP ingest / HLS packaging path. Grant issues a
// one-time publish key the ingest engine is expected to honor until revoked.
type IngestGateway struct {
	ingestBase string
	hlsBase    string

	mu   sync.Mutex
	keys map[domain.StreamID]string
}

func NewIngestGateway(ingestBase, hlsBase string) *IngestGateway {
	return &IngestGateway{
		ingestBase: ingestBase,
		hlsBase:    hlsBase,
		keys:       make(map[domain.StreamID]string),
	}
}

func (g *IngestGateway) Kind() domain.TransportKind {
	return domain.TransportIngestRelay
}

func (g *IngestGateway) Grant(ctx context.Context, streamID domain.StreamID, identity domain.IdentityID) (*domain.StreamCredential, error) {
	key := uuid.NewString()

	g.mu.Lock()
	g.keys[streamID] = key
	g.mu.Unlock()

	cred := &domain.StreamCredential{
		Transport: domain.TransportIngestRelay,
		Channel:   string(streamID),
		Token:     key,
		IngestURL: fmt.Sprintf("%s/%s?key=%s", g.ingestBase, streamID, key),
	}
	if g.hlsBase != "" {
		cred.PlaybackURL = fmt.Sprintf("%s/%s/index.m3u8", g.hlsBase, streamID)
	}
	return cred, nil
}

func (g *IngestGateway) Revoke(ctx context.Context, streamID domain.StreamID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, streamID)
	return nil
}

// KeyFor reports the currently-issued publish key so the ingest engine can
// validate incoming RTMP connections.
func (g *IngestGateway) KeyFor(streamID domain.StreamID) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key, ok := g.keys[streamID]
	return key, ok
}
