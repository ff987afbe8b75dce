package services

import (
	"encoding/json"

	"github.com/123hpcomsetup-j/streamvibe/internal/core/domain"
	"github.com/123hpcomsetup-j/streamvibe/internal/core/ports"

	"go.uber.org/zap"
)

// Router delivers WebRTC handshake messages between exactly one creator and
// one viewer without inspecting their contents. A target that disappeared
// mid-handshake is an expected race: the message is dropped and logged, never
// surfaced to the sender.
type Router struct {
	registry  *Registry
	table     *SessionTable
	presence  *Presence
	telemetry ports.Telemetry
	logger    *zap.SugaredLogger
}

func NewRouter(registry *Registry, table *SessionTable, presence *Presence, telemetry ports.Telemetry, logger *zap.SugaredLogger) *Router {
	return &Router{
		registry:  registry,
		table:     table,
		presence:  presence,
		telemetry: telemetry,
		logger:    logger,
	}
}

// RouteOffer forwards a creator's offer to one viewer. Valid only when the
// sender is the registered creator of the viewer's associated stream.
func (r *Router) RouteOffer(from, to domain.ConnectionID, payload json.RawMessage) error {
	viewer, ok := r.registry.Lookup(to)
	if !ok {
		r.dropSignal(domain.SignalOffer, from, to, "target viewer disconnected")
		return nil
	}

	sess, ok := r.table.Get(viewer.StreamID)
	if !ok || sess.CreatorConn != from {
		return domain.ErrNotAMember
	}
	if !sess.HasViewer(to) {
		return domain.ErrNotAMember
	}

	r.forward(domain.SignalOffer, domain.EventOffer, from, to, sess.ID, payload)
	return nil
}

// RouteAnswer forwards a viewer's answer back to the creator. Valid only when
// the sender is a current member of that creator's stream.
func (r *Router) RouteAnswer(from, to domain.ConnectionID, payload json.RawMessage) error {
	viewer, ok := r.registry.Lookup(from)
	if !ok {
		return domain.ErrConnectionNotFound
	}

	sess, ok := r.table.Get(viewer.StreamID)
	if !ok || sess.CreatorConn != to || !sess.HasViewer(from) {
		return domain.ErrNotAMember
	}

	if _, ok := r.registry.Lookup(to); !ok {
		r.dropSignal(domain.SignalAnswer, from, to, "creator disconnected")
		return nil
	}

	r.forward(domain.SignalAnswer, domain.EventAnswer, from, to, sess.ID, payload)
	return nil
}

// RouteICECandidate forwards unconditionally to the target if it is still
// registered and drops the candidate otherwise. Trickled candidates routinely
// outlive the connection they were meant for.
func (r *Router) RouteICECandidate(from, to domain.ConnectionID, payload json.RawMessage) error {
	if _, ok := r.registry.Lookup(to); !ok {
		r.dropSignal(domain.SignalICECandidate, from, to, "target disconnected")
		return nil
	}
	r.forward(domain.SignalICECandidate, domain.EventICECandidate, from, to, "", payload)
	return nil
}

// HandleJoin adds the viewer to the stream and, for a genuinely new member,
// tells the creator to initiate its side of the handshake. The handshake
// direction is always creator-to-viewer. A second join from an existing
// member is a no-op.
func (r *Router) HandleJoin(viewerConn domain.ConnectionID, streamID domain.StreamID) error {
	conn, ok := r.registry.Lookup(viewerConn)
	if !ok {
		return domain.ErrConnectionNotFound
	}
	if conn.Role != domain.RoleViewer {
		return domain.ErrUnauthorizedRole
	}

	// A viewer hopping streams leaves the previous one implicitly.
	if conn.StreamID != "" && conn.StreamID != streamID {
		r.HandleLeave(viewerConn, conn.StreamID)
	}

	added, err := r.table.AddViewer(streamID, viewerConn)
	if err != nil {
		return err
	}
	if !added {
		r.logger.Debugw("duplicate join ignored",
			"stream_id", streamID,
			"viewer", viewerConn,
		)
		return nil
	}

	conn.StreamID = streamID
	sess, _ := r.table.Get(streamID)
	r.presence.Broadcast(sess)

	if !r.registry.Send(sess.CreatorConn, domain.ServerEvent{
		Type:     domain.EventViewerJoined,
		StreamID: streamID,
		Viewer:   viewerConn,
	}) {
		r.logger.Debugw("viewer-joined notification skipped, creator gone",
			"stream_id", streamID,
			"viewer", viewerConn,
		)
	}
	return nil
}

// HandleLeave removes the viewer from the stream. Leaving a stream the viewer
// never joined is a no-op, not an error.
func (r *Router) HandleLeave(viewerConn domain.ConnectionID, streamID domain.StreamID) {
	if !r.table.RemoveViewer(streamID, viewerConn) {
		return
	}
	if conn, ok := r.registry.Lookup(viewerConn); ok && conn.StreamID == streamID {
		conn.StreamID = ""
	}
	if sess, ok := r.table.Get(streamID); ok {
		r.presence.Broadcast(sess)
	}
}

func (r *Router) forward(kind domain.SignalKind, typ domain.EventType, from, to domain.ConnectionID, streamID domain.StreamID, payload json.RawMessage) {
	ok := r.registry.Send(to, domain.ServerEvent{
		Type:     typ,
		StreamID: streamID,
		From:     from,
		Payload:  payload,
	})
	if !ok {
		r.dropSignal(kind, from, to, "send failed")
		return
	}
	r.telemetry.SignalRouted(kind)
}

func (r *Router) dropSignal(kind domain.SignalKind, from, to domain.ConnectionID, reason string) {
	r.telemetry.SignalDropped(kind)
	r.logger.Debugw("signal dropped",
		"kind", kind,
		"from", from,
		"to", to,
		"reason", reason,
	)
}
