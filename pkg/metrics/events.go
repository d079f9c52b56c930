package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomePanic   = "panic"
	OutcomeTimeout = "timeout"
)

// EventMetrics records dispatcher activity.
type EventMetrics struct {
	published *prometheus.CounterVec
	handled   *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	dropped   *prometheus.CounterVec
}

// NewEventMetrics registers dispatcher metrics on the provided registerer.
func NewEventMetrics(reg prometheus.Registerer) *EventMetrics {
	if reg == nil {
		return &EventMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Events published on the in-process dispatcher.",
	}, []string{"event"})
	handled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_handlers_total",
		Help:      "Event handler invocations by outcome.",
	}, []string{"event", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_handler_duration_seconds",
		Help:      "Event handler duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"event"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Events published after the dispatcher was closed.",
	}, []string{"event"})
	reg.MustRegister(published, handled, duration, dropped)
	return &EventMetrics{
		published: published,
		handled:   handled,
		duration:  duration,
		dropped:   dropped,
	}
}

// IncPublished counts one publish call.
func (m *EventMetrics) IncPublished(event string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(event)).Inc()
}

// ObserveHandler records a single handler run.
func (m *EventMetrics) ObserveHandler(event, outcome string, duration time.Duration) {
	if m == nil || m.handled == nil {
		return
	}
	m.handled.WithLabelValues(normalizeLabel(event), normalizeLabel(outcome)).Inc()
	m.duration.WithLabelValues(normalizeLabel(event)).Observe(duration.Seconds())
}

// IncDropped counts a publish refused after shutdown.
func (m *EventMetrics) IncDropped(event string) {
	if m == nil || m.dropped == nil {
		return
	}
	m.dropped.WithLabelValues(normalizeLabel(event)).Inc()
}
