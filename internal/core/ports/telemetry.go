package ports

import "github.com/123hpcomsetup-j/streamvibe/internal/core/domain"

// Telemetry receives coordinator state transitions for metrics export. The
// prometheus collector implements it in production; tests use NopTelemetry.
type Telemetry interface {
	ConnectionOpened(role domain.Role)
	ConnectionClosed(role domain.Role)
	StreamStarted(streamID domain.StreamID)
	StreamEnded(streamID domain.StreamID)
	ViewerCount(streamID domain.StreamID, count int)
	SignalRouted(kind domain.SignalKind)
	SignalDropped(kind domain.SignalKind)
	ChatPosted(tipAmount int64)
}

type NopTelemetry struct{}

func (NopTelemetry) ConnectionOpened(domain.Role)     {}
func (NopTelemetry) ConnectionClosed(domain.Role)     {}
func (NopTelemetry) StreamStarted(domain.StreamID)    {}
func (NopTelemetry) StreamEnded(domain.StreamID)      {}
func (NopTelemetry) ViewerCount(domain.StreamID, int) {}
func (NopTelemetry) SignalRouted(domain.SignalKind)   {}
func (NopTelemetry) SignalDropped(domain.SignalKind)  {}
func (NopTelemetry) ChatPosted(int64)                 {}
