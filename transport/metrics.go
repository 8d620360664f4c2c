package transport

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/petal-labs/anthropic/core"
)

// LatencyBuckets spans 100ms to 5 minutes, wide enough to include the default
// two-minute backoff budget.
var LatencyBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300}

// Metrics holds the Prometheus collectors recorded by a Transport.
// A nil *Metrics records nothing.
type Metrics struct {
	requests      *prometheus.CounterVec
	attempts      *prometheus.CounterVec
	retries       *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	streamEvents  *prometheus.CounterVec
	streamsEnded  *prometheus.CounterVec
	streamsActive prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "anthropic_requests_total",
				Help: "Calls by final outcome",
			},
			[]string{"method", "path", "outcome"},
		),
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "anthropic_request_attempts_total",
				Help: "HTTP attempts, including retries",
			},
			[]string{"method", "path"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "anthropic_request_retries_total",
				Help: "Backoff sleeps after recoverable errors",
			},
			[]string{"method", "path"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "anthropic_request_duration_seconds",
				Help:    "Call duration including retries",
				Buckets: LatencyBuckets,
			},
			[]string{"method", "path"},
		),
		streamEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "anthropic_stream_events_total",
				Help: "Decoded stream events by event name",
			},
			[]string{"event"},
		),
		streamsEnded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "anthropic_streams_ended_total",
				Help: "Closed event streams by how they ended",
			},
			[]string{"outcome"},
		),
		streamsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "anthropic_streams_active",
				Help: "Open event streams",
			},
		),
	}

	reg.MustRegister(
		m.requests,
		m.attempts,
		m.retries,
		m.latency,
		m.streamEvents,
		m.streamsEnded,
		m.streamsActive,
	)
	return m
}

func (m *Metrics) observeRequest(c *call, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(c.method, c.path, outcomeLabel(err)).Inc()
	m.latency.WithLabelValues(c.method, c.path).Observe(d.Seconds())
}

func (m *Metrics) observeAttempt(c *call) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(c.method, c.path).Inc()
}

func (m *Metrics) observeRetry(c *call) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(c.method, c.path).Inc()
}

func (m *Metrics) observeStreamEvent(event string) {
	if m == nil {
		return
	}
	m.streamEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) streamOpened() {
	if m == nil {
		return
	}
	m.streamsActive.Inc()
}

// streamClosed records the end of a stream. terminal is nil for a clean end
// and for a consumer that stopped reading.
func (m *Metrics) streamClosed(terminal error) {
	if m == nil {
		return
	}
	m.streamsActive.Dec()
	m.streamsEnded.WithLabelValues(outcomeLabel(terminal)).Inc()
}

// outcomeLabel names the error kind for the outcome label.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, core.ErrBadRequest):
		return "bad_request"
	case errors.Is(err, core.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, core.ErrAPI):
		return "api_error"
	case errors.Is(err, core.ErrDecode):
		return "decode_error"
	case errors.Is(err, core.ErrStream):
		return "stream_error"
	case errors.Is(err, core.ErrUnknownEventType):
		return "unknown_event_type"
	case errors.Is(err, core.ErrNetwork):
		return "network_error"
	default:
		return "unknown"
	}
}
