package services

import (
	"context"
	"time"

	"github.com/123hpcomsetup-j/streamvibe/internal/core/domain"
	"github.com/123hpcomsetup-j/streamvibe/internal/core/ports"
	"github.com/123hpcomsetup-j/streamvibe/pkg/retry"
	"github.com/123hpcomsetup-j/streamvibe/pkg/validation"

	"go.uber.org/zap"
)

const archiveTimeout = 5 * time.Second

// Fanout accepts chat and tip events scoped to a stream, appends them to the
// session's bounded history and broadcasts them to the creator and every
// current viewer. Token ledger movement for tips belongs to the platform's
// transaction service, not here; this component only notifies.
type Fanout struct {
	registry      *Registry
	table         *SessionTable
	archive       ports.ChatArchive
	telemetry     ports.Telemetry
	logger        *zap.SugaredLogger
	maxMessageLen int
	maxTipAmount  int64
	retryCfg      retry.Config
}

func NewFanout(registry *Registry, table *SessionTable, archive ports.ChatArchive, telemetry ports.Telemetry, logger *zap.SugaredLogger, maxMessageLen int, maxTipAmount int64) *Fanout {
	return &Fanout{
		registry:      registry,
		table:         table,
		archive:       archive,
		telemetry:     telemetry,
		logger:        logger,
		maxMessageLen: maxMessageLen,
		maxTipAmount:  maxTipAmount,
		retryCfg:      retry.DefaultConfig(),
	}
}

// Post appends one event to the stream's history and fans it out. Events for
// a single stream are broadcast in Post order.
func (f *Fanout) Post(streamID domain.StreamID, role domain.Role, displayName, text string, tipAmount int64) (*domain.ChatEvent, error) {
	if err := validation.ValidateDisplayName(displayName); err != nil {
		return nil, err
	}
	if err := validation.ValidateChatMessage(text, f.maxMessageLen); err != nil {
		return nil, err
	}
	if err := validation.ValidateTipAmount(tipAmount, f.maxTipAmount); err != nil {
		return nil, err
	}

	sess, ok := f.table.Get(streamID)
	if !ok {
		return nil, domain.ErrNoSuchStream
	}

	ev := domain.ChatEvent{
		StreamID:    streamID,
		DisplayName: displayName,
		Role:        role,
		Text:        text,
		TipAmount:   tipAmount,
		SentAt:      time.Now(),
	}
	sess.History().Append(ev)

	typ := domain.EventChatMessage
	if tipAmount > 0 {
		typ = domain.EventTipReceived
	}
	out := domain.ServerEvent{
		Type:     typ,
		StreamID: streamID,
		Chat:     &ev,
	}

	f.registry.Send(sess.CreatorConn, out)
	for _, viewer := range sess.Viewers() {
		f.registry.Send(viewer, out)
	}

	f.telemetry.ChatPosted(tipAmount)
	f.archiveAsync(ev)
	return &ev, nil
}

// archiveAsync persists the event off the event path. An archive outage is
// logged and otherwise invisible to live sessions.
func (f *Fanout) archiveAsync(ev domain.ChatEvent) {
	if f.archive == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()

		err := retry.Retry(ctx, f.retryCfg, func() error {
			return f.archive.Append(ctx, ev)
		})
		if err != nil {
			f.logger.Warnw("chat archive append failed",
				"stream_id", ev.StreamID,
				"tip_amount", ev.TipAmount,
				"error", err,
			)
		}
	}()
}
