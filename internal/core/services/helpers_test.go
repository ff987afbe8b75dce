package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/123hpcomsetup-j/streamvibe/internal/core/domain"
	"github.com/123hpcomsetup-j/streamvibe/internal/core/ports"

	"go.uber.org/zap"
)

// fakeSender records every event delivered to one connection so tests can
// assert on broadcast contents and ordering.
type fakeSender struct {
	mu     sync.Mutex
	events []domain.ServerEvent
	closed bool
}

func (s *fakeSender) Send(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("send on closed connection")
	}
	ev, ok := v.(domain.ServerEvent)
	if !ok {
		return errors.New("unexpected outbound message type")
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *fakeSender) all() []domain.ServerEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.ServerEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *fakeSender) byType(t domain.EventType) []domain.ServerEvent {
	var out []domain.ServerEvent
	for _, ev := range s.all() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// countSequence returns the viewer counts in the order they were broadcast.
func (s *fakeSender) countSequence() []int {
	var out []int
	for _, ev := range s.byType(domain.EventViewerCount) {
		out = append(out, ev.Count)
	}
	return out
}

type stubGateway struct {
	kind     domain.TransportKind
	grantErr error

	mu      sync.Mutex
	revoked []domain.StreamID
}

func (g *stubGateway) Kind() domain.TransportKind {
	if g.kind == "" {
		return domain.TransportPeerToPeer
	}
	return g.kind
}

func (g *stubGateway) Grant(_ context.Context, streamID domain.StreamID, _ domain.IdentityID) (*domain.StreamCredential, error) {
	if g.grantErr != nil {
		return nil, g.grantErr
	}
	return &domain.StreamCredential{
		Transport: g.Kind(),
		Channel:   string(streamID),
	}, nil
}

func (g *stubGateway) Revoke(_ context.Context, streamID domain.StreamID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.revoked = append(g.revoked, streamID)
	return nil
}

func (g *stubGateway) revokedStreams() []domain.StreamID {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]domain.StreamID, len(g.revoked))
	copy(out, g.revoked)
	return out
}

// directoryFunc adapts a plain function into a ports.StreamDirectory.
type directoryFunc func(ctx context.Context, streamID domain.StreamID, identity domain.IdentityID) error

func (f directoryFunc) Authorize(ctx context.Context, streamID domain.StreamID, identity domain.IdentityID) error {
	return f(ctx, streamID, identity)
}

type stubArchive struct {
	mu       sync.Mutex
	appended []domain.ChatEvent
}

func (a *stubArchive) Append(_ context.Context, ev domain.ChatEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.appended = append(a.appended, ev)
	return nil
}

func (a *stubArchive) len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.appended)
}

func testConfig() CoordinatorConfig {
	return CoordinatorConfig{
		HistoryCapacity: 50,
		MaxMessageLen:   500,
		MaxTipAmount:    100_000,
	}
}

func newTestCoordinator(t *testing.T, directory ports.StreamDirectory, gateway ports.MediaGateway, archive ports.ChatArchive, cfg CoordinatorConfig) *Coordinator {
	t.Helper()
	if gateway == nil {
		gateway = &stubGateway{}
	}
	return NewCoordinator(directory, gateway, archive, ports.NopTelemetry{}, zap.NewNop().Sugar(), cfg)
}

// startLiveStream wires up a creator connection with an open session and
// returns the pieces tests poke at.
func startLiveStream(t *testing.T, c *Coordinator, streamID domain.StreamID) (domain.ConnectionID, *fakeSender) {
	t.Helper()

	sender := &fakeSender{}
	creator := c.Connect("creator-1", domain.RoleCreator, sender)
	_, err := c.StartStream(context.Background(), creator, streamID)
	if err != nil {
		t.Fatalf("start stream: %v", err)
	}
	return creator, sender
}

func joinViewer(t *testing.T, c *Coordinator, identity domain.IdentityID, streamID domain.StreamID) (domain.ConnectionID, *fakeSender) {
	t.Helper()

	sender := &fakeSender{}
	viewer := c.Connect(identity, domain.RoleViewer, sender)
	if err := c.JoinStream(viewer, streamID); err != nil {
		t.Fatalf("join stream: %v", err)
	}
	return viewer, sender
}
