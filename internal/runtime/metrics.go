package runtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "ariflow"

// DispatchMetrics records Prometheus metrics for the dispatch loop. A nil
// *DispatchMetrics is valid and records nothing.
type DispatchMetrics struct {
	framesReceived      prometheus.Counter
	framesMalformed     prometheus.Counter
	eventsDispatched    *prometheus.CounterVec
	listenerInvocations *prometheus.CounterVec
	listenerFailures    *prometheus.CounterVec
	activeConnections   prometheus.Gauge
}

// NewDispatchMetrics registers the dispatch metrics with reg. A nil reg uses
// the default Prometheus registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &DispatchMetrics{
		framesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "frames_received_total",
			Help:      "Frames received across all event streams.",
		}),
		framesMalformed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "frames_malformed_total",
			Help:      "Frames discarded because they were not well-formed events.",
		}),
		eventsDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_dispatched_total",
			Help:      "Well-formed events dispatched, by event type.",
		}, []string{"event_type"}),
		listenerInvocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "listener_invocations_total",
			Help:      "Listener callbacks invoked, by event type.",
		}, []string{"event_type"}),
		listenerFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "listener_failures_total",
			Help:      "Listener callbacks that panicked or failed, by event type.",
		}, []string{"event_type"}),
		activeConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "active_connections",
			Help:      "Event stream connections currently being drained.",
		}),
	}
}

func (m *DispatchMetrics) frameReceived() {
	if m == nil {
		return
	}
	m.framesReceived.Inc()
}

func (m *DispatchMetrics) frameMalformed() {
	if m == nil {
		return
	}
	m.framesMalformed.Inc()
}

func (m *DispatchMetrics) eventDispatched(eventType string) {
	if m == nil {
		return
	}
	m.eventsDispatched.WithLabelValues(eventType).Inc()
}

func (m *DispatchMetrics) listenerInvoked(eventType string) {
	if m == nil {
		return
	}
	m.listenerInvocations.WithLabelValues(eventType).Inc()
}

func (m *DispatchMetrics) listenerFailed(eventType string) {
	if m == nil {
		return
	}
	m.listenerFailures.WithLabelValues(eventType).Inc()
}

func (m *DispatchMetrics) connectionOpened() {
	if m == nil {
		return
	}
	m.activeConnections.Inc()
}

func (m *DispatchMetrics) connectionClosed() {
	if m == nil {
		return
	}
	m.activeConnections.Dec()
}
