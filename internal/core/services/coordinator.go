package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/123hpcomsetup-j/streamvibe/internal/core/domain"
	"github.com/123hpcomsetup-j/streamvibe/internal/core/ports"

	"go.uber.org/zap"
)

const revokeTimeout = 5 * time.Second

// Coordinator owns the connection registry and session table and serializes
// every mutating transport event under one mutex, so each event's mutation
// and broadcast complete before the next event for the same state is
// processed. Outbound delivery is fire-and-forget; nothing here blocks on
// I/O besides the collaborator calls, which are bounded or detached.
type Coordinator struct {
	mu sync.Mutex

	registry *Registry
	table    *SessionTable
	router   *Router
	presence *Presence
	fanout   *Fanout

	directory ports.StreamDirectory
	media     ports.MediaGateway
	telemetry ports.Telemetry
	logger    *zap.SugaredLogger
}

// CoordinatorConfig bundles the tunables the coordinator's components need.
type CoordinatorConfig struct {
	HistoryCapacity int
	MaxMessageLen   int
	MaxTipAmount    int64
}

func NewCoordinator(
	directory ports.StreamDirectory,
	media ports.MediaGateway,
	archive ports.ChatArchive,
	telemetry ports.Telemetry,
	logger *zap.SugaredLogger,
	cfg CoordinatorConfig,
) *Coordinator {
	registry := NewRegistry()
	table := NewSessionTable(cfg.HistoryCapacity)
	presence := NewPresence(registry, telemetry, logger)

	return &Coordinator{
		registry:  registry,
		table:     table,
		router:    NewRouter(registry, table, presence, telemetry, logger),
		presence:  presence,
		fanout:    NewFanout(registry, table, archive, telemetry, logger, cfg.MaxMessageLen, cfg.MaxTipAmount),
		directory: directory,
		media:     media,
		telemetry: telemetry,
		logger:    logger,
	}
}

// Connect registers a new transport connection. Never fails.
func (c *Coordinator) Connect(identity domain.IdentityID, role domain.Role, sender ports.Sender) domain.ConnectionID {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.registry.Register(identity, role, sender)
	c.telemetry.ConnectionOpened(role)
	c.logger.Infow("connection registered",
		"connection", id,
		"identity", identity,
		"role", role,
	)
	return id
}

// Disconnect is the only cancellation signal in the system. It runs the full,
// idempotent cleanup path regardless of handshake phase: membership removed,
// counts corrected, and the session closed when the disconnecting party was
// the creator. A duplicate disconnect is a no-op.
func (c *Coordinator) Disconnect(id domain.ConnectionID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn := c.registry.Unregister(id)
	if conn == nil {
		c.logger.Debugw("duplicate disconnect ignored", "connection", id)
		return
	}
	c.telemetry.ConnectionClosed(conn.Role)

	if conn.StreamID == "" {
		return
	}

	if conn.Role == domain.RoleCreator {
		if sess, ok := c.table.Get(conn.StreamID); ok && sess.CreatorConn == id {
			c.closeSessionLocked(sess, "creator disconnected")
		}
		return
	}

	if c.table.RemoveViewer(conn.StreamID, id) {
		if sess, ok := c.table.Get(conn.StreamID); ok {
			c.presence.Broadcast(sess)
		}
	}
}

// StartStream opens a live session for the creator connection. The directory
// authorization and the transport credential exchange are network calls, so
// they run before the event mutex is taken; a slow store must not stall
// events for every other stream. The session state checks are re-validated
// under the lock afterwards, and a credential granted for an attempt that
// loses that re-validation is revoked.
func (c *Coordinator) StartStream(ctx context.Context, creatorConn domain.ConnectionID, streamID domain.StreamID) (*domain.StreamCredential, error) {
	conn, ok := c.registry.Lookup(creatorConn)
	if !ok {
		return nil, domain.ErrConnectionNotFound
	}
	// Identity and Role are immutable after Register, so reading them
	// outside c.mu is safe.
	if conn.Role != domain.RoleCreator {
		return nil, domain.ErrUnauthorizedRole
	}

	// Fast-fail before any I/O when the stream is plainly live already.
	if existing, ok := c.table.Get(streamID); ok && existing.CreatorConn != creatorConn {
		if _, live := c.registry.Lookup(existing.CreatorConn); live {
			return nil, domain.ErrAlreadyLive
		}
	}

	if err := c.authorizeStream(ctx, streamID, conn.Identity); err != nil {
		return nil, err
	}

	cred, err := c.media.Grant(ctx, streamID, conn.Identity)
	if err != nil {
		return nil, fmt.Errorf("media credential grant failed: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// The exchange took real time; the world may have moved underneath it.
	conn, ok = c.registry.Lookup(creatorConn)
	if !ok {
		c.revokeAsync(streamID)
		return nil, domain.ErrConnectionNotFound
	}

	// A creator can broadcast at most one stream at a time.
	if prev, ok := c.table.FindByCreator(creatorConn); ok {
		c.logger.Infow("auto-closing previous session on restart",
			"stream_id", prev.ID,
			"creator", creatorConn,
		)
		c.closeSessionLocked(prev, "creator restarted")
	}

	if existing, ok := c.table.Get(streamID); ok {
		if _, live := c.registry.Lookup(existing.CreatorConn); live {
			c.revokeAsync(streamID)
			return nil, domain.ErrAlreadyLive
		}
		// Creator crashed without a clean stop; reclaim the stream id.
		c.logger.Infow("auto-closing stale session",
			"stream_id", streamID,
			"stale_creator", existing.CreatorConn,
		)
		c.closeSessionLocked(existing, "stale creator")
	}

	sess, err := c.table.Open(streamID, creatorConn, c.media.Kind(), cred.Channel)
	if err != nil {
		c.revokeAsync(streamID)
		return nil, err
	}
	conn.StreamID = streamID

	c.telemetry.StreamStarted(streamID)
	c.logger.Infow("stream started",
		"stream_id", streamID,
		"creator", creatorConn,
		"transport", sess.Transport,
		"channel", sess.Channel,
	)
	return cred, nil
}

// StopStream closes the creator's session. Only the session's own creator
// connection may stop it.
func (c *Coordinator) StopStream(creatorConn domain.ConnectionID, streamID domain.StreamID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.table.Get(streamID)
	if !ok {
		return domain.ErrNoSuchStream
	}
	if sess.CreatorConn != creatorConn {
		return domain.ErrNotAMember
	}
	c.closeSessionLocked(sess, "creator stopped")
	return nil
}

func (c *Coordinator) JoinStream(viewerConn domain.ConnectionID, streamID domain.StreamID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.router.HandleJoin(viewerConn, streamID)
}

func (c *Coordinator) LeaveStream(viewerConn domain.ConnectionID, streamID domain.StreamID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.router.HandleLeave(viewerConn, streamID)
}

// Signal routes one handshake envelope. Expected races (target gone) are
// absorbed inside the router; only protocol misuse comes back as an error.
func (c *Coordinator) Signal(kind domain.SignalKind, from, to domain.ConnectionID, payload json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch kind {
	case domain.SignalOffer:
		return c.router.RouteOffer(from, to, payload)
	case domain.SignalAnswer:
		return c.router.RouteAnswer(from, to, payload)
	case domain.SignalICECandidate:
		return c.router.RouteICECandidate(from, to, payload)
	default:
		return fmt.Errorf("unknown signal kind: %s", kind)
	}
}

// PostChat posts a chat line or tip on behalf of a connection into the stream
// it is currently associated with.
func (c *Coordinator) PostChat(from domain.ConnectionID, displayName, text string, tipAmount int64) (*domain.ChatEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, ok := c.registry.Lookup(from)
	if !ok {
		return nil, domain.ErrConnectionNotFound
	}
	if conn.StreamID == "" {
		return nil, domain.ErrNotAMember
	}
	if displayName == "" {
		displayName = string(conn.Identity)
	}
	return c.fanout.Post(conn.StreamID, conn.Role, displayName, text, tipAmount)
}

// Registry exposes read access for the HTTP surface.
func (c *Coordinator) Registry() *Registry {
	return c.registry
}

// Table exposes read access for the HTTP surface.
func (c *Coordinator) Table() *SessionTable {
	return c.table
}

// revokeAsync invalidates the stream's transport credential off the event
// path. Used on session close and when a granted credential is abandoned
// because the start attempt lost its re-validation.
func (c *Coordinator) revokeAsync(streamID domain.StreamID) {
	if c.media == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), revokeTimeout)
		defer cancel()
		if err := c.media.Revoke(ctx, streamID); err != nil {
			c.logger.Warnw("media credential revoke failed",
				"stream_id", streamID,
				"error", err,
			)
		}
	}()
}

// authorizeStream consults the stream directory. A definitive rejection is
// surfaced; a directory outage is logged and waved through, because a flaky
// store must not take live broadcasting down with it.
func (c *Coordinator) authorizeStream(ctx context.Context, streamID domain.StreamID, identity domain.IdentityID) error {
	if c.directory == nil {
		return nil
	}
	err := c.directory.Authorize(ctx, streamID, identity)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNoSuchStream) || errors.Is(err, domain.ErrUnauthorizedRole) {
		return err
	}
	c.logger.Warnw("stream directory unavailable, allowing start",
		"stream_id", streamID,
		"error", err,
	)
	return nil
}

// closeSessionLocked tears one session down: the table entry goes away, every
// viewer is told the stream ended and unassociated (their connections stay
// registered), and the transport credential is revoked off the event path.
// Callers must hold c.mu.
func (c *Coordinator) closeSessionLocked(sess *domain.StreamSession, reason string) {
	c.table.Close(sess.ID)

	ended := domain.ServerEvent{
		Type:     domain.EventStreamEnded,
		StreamID: sess.ID,
	}
	for _, viewer := range sess.Viewers() {
		sess.RemoveViewer(viewer)
		c.registry.Send(viewer, ended)
		if conn, ok := c.registry.Lookup(viewer); ok && conn.StreamID == sess.ID {
			conn.StreamID = ""
		}
	}
	if conn, ok := c.registry.Lookup(sess.CreatorConn); ok && conn.StreamID == sess.ID {
		conn.StreamID = ""
	}

	c.revokeAsync(sess.ID)

	c.telemetry.StreamEnded(sess.ID)
	c.logger.Infow("stream ended",
		"stream_id", sess.ID,
		"reason", reason,
	)
}
