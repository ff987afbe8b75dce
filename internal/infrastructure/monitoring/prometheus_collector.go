package monitoring

import (
	"github.com/123hpcomsetup-j/streamvibe/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector implements ports.Telemetry on top of promauto metrics.
type PrometheusCollector struct {
	connectionsByRole *prometheus.GaugeVec
	streamsLive       prometheus.Gauge
	streamViewers     *prometheus.GaugeVec

	signalsRouted  *prometheus.CounterVec
	signalsDropped *prometheus.CounterVec

	chatMessagesTotal prometheus.Counter
	tipsTotal         prometheus.Counter
	tipTokensTotal    prometheus.Counter
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		connectionsByRole: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "streamvibe_connections",
			Help: "Currently registered transport connections by role",
		}, []string{"role"}),

		streamsLive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "streamvibe_streams_live",
			Help: "Number of currently live stream sessions",
		}),

		streamViewers: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "streamvibe_stream_viewers",
			Help: "Current viewer count per live stream",
		}, []string{"stream_id"}),

		signalsRouted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "streamvibe_signals_routed_total",
			Help: "Signaling messages forwarded to their target, by kind",
		}, []string{"kind"}),

		signalsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "streamvibe_signals_dropped_total",
			Help: "Signaling messages dropped because the target vanished, by kind",
		}, []string{"kind"}),

		chatMessagesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streamvibe_chat_messages_total",
			Help: "Chat messages fanned out, tips included",
		}),

		tipsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streamvibe_tips_total",
			Help: "Tip events fanned out",
		}),

		tipTokensTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streamvibe_tip_tokens_total",
			Help: "Total tokens announced through tips",
		}),
	}
}

func (p *PrometheusCollector) ConnectionOpened(role domain.Role) {
	p.connectionsByRole.WithLabelValues(string(role)).Inc()
}

func (p *PrometheusCollector) ConnectionClosed(role domain.Role) {
	p.connectionsByRole.WithLabelValues(string(role)).Dec()
}

func (p *PrometheusCollector) StreamStarted(streamID domain.StreamID) {
	p.streamsLive.Inc()
	p.streamViewers.WithLabelValues(string(streamID)).Set(0)
}

func (p *PrometheusCollector) StreamEnded(streamID domain.StreamID) {
	p.streamsLive.Dec()
	p.streamViewers.DeleteLabelValues(string(streamID))
}

func (p *PrometheusCollector) ViewerCount(streamID domain.StreamID, count int) {
	p.streamViewers.WithLabelValues(string(streamID)).Set(float64(count))
}

func (p *PrometheusCollector) SignalRouted(kind domain.SignalKind) {
	p.signalsRouted.WithLabelValues(string(kind)).Inc()
}

func (p *PrometheusCollector) SignalDropped(kind domain.SignalKind) {
	p.signalsDropped.WithLabelValues(string(kind)).Inc()
}

func (p *PrometheusCollector) ChatPosted(tipAmount int64) {
	p.chatMessagesTotal.Inc()
	if tipAmount > 0 {
		p.tipsTotal.Inc()
		p.tipTokensTotal.Add(float64(tipAmount))
	}
}
