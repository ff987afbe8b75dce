package services

import (
	"github.com/123hpcomsetup-j/streamvibe/internal/core/domain"
	"github.com/123hpcomsetup-j/streamvibe/internal/core/ports"

	"go.uber.org/zap"
)

// Presence reconciles the authoritative viewer count with the viewer set and
// broadcasts it. One update per successful membership change, no batching:
// at this scale correctness beats volume.
type Presence struct {
	registry  *Registry
	telemetry ports.Telemetry
	logger    *zap.SugaredLogger
}

func NewPresence(registry *Registry, telemetry ports.Telemetry, logger *zap.SugaredLogger) *Presence {
	return &Presence{
		registry:  registry,
		telemetry: telemetry,
		logger:    logger,
	}
}

// Broadcast sends the current viewer count to the creator and every viewer of
// the session. The count is read straight off the viewer set, so it can never
// disagree with membership.
func (p *Presence) Broadcast(sess *domain.StreamSession) {
	count := sess.ViewerCount()
	ev := domain.ServerEvent{
		Type:     domain.EventViewerCount,
		StreamID: sess.ID,
		Count:    count,
	}

	if !p.registry.Send(sess.CreatorConn, ev) {
		p.logger.Debugw("viewer count update skipped, creator gone",
			"stream_id", sess.ID,
		)
	}
	for _, viewer := range sess.Viewers() {
		if !p.registry.Send(viewer, ev) {
			p.logger.Debugw("viewer count update skipped, viewer gone",
				"stream_id", sess.ID,
				"viewer", viewer,
			)
		}
	}

	p.telemetry.ViewerCount(sess.ID, count)
}
