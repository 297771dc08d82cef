// Package prometheus provides Prometheus-backed implementations of the
// metrics interfaces. A blank import from the server binary registers the
// constructors with pkg/metrics during initialization.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kyberchat/kyberchat/pkg/metrics"
)

func init() {
	metrics.RegisterGatewayMetricsConstructor(NewGatewayMetrics)
}

// gatewayMetrics is the Prometheus implementation of metrics.GatewayMetrics.
type gatewayMetrics struct {
	connectedSessions prometheus.Gauge
	eventsReceived    *prometheus.CounterVec
	eventsSent        *prometheus.CounterVec
	droppedSessions   prometheus.Counter
	keyRotations      *prometheus.CounterVec
}

// NewGatewayMetrics creates a new Prometheus-backed GatewayMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewGatewayMetrics() metrics.GatewayMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &gatewayMetrics{
		connectedSessions: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "kyberchat_gateway_connected_sessions",
				Help: "Current number of authenticated websocket sessions",
			},
		),
		eventsReceived: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kyberchat_gateway_events_received_total",
				Help: "Total inbound events by event type",
			},
			[]string{"event"},
		),
		eventsSent: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kyberchat_gateway_events_sent_total",
				Help: "Total outbound events accepted into session send queues by event type",
			},
			[]string{"event"},
		),
		droppedSessions: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "kyberchat_gateway_dropped_sessions_total",
				Help: "Total sessions dropped for falling behind on their send queue",
			},
		),
		keyRotations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kyberchat_key_rotations_total",
				Help: "Total completed room key rotations by reason",
			},
			[]string{"reason"},
		),
	}
}

func (m *gatewayMetrics) RecordSessionConnected() {
	if m == nil {
		return
	}
	m.connectedSessions.Inc()
}

func (m *gatewayMetrics) RecordSessionDisconnected() {
	if m == nil {
		return
	}
	m.connectedSessions.Dec()
}

func (m *gatewayMetrics) RecordEventReceived(event string) {
	if m == nil {
		return
	}
	m.eventsReceived.WithLabelValues(event).Inc()
}

func (m *gatewayMetrics) RecordEventSent(event string) {
	if m == nil {
		return
	}
	m.eventsSent.WithLabelValues(event).Inc()
}

func (m *gatewayMetrics) RecordSessionDropped() {
	if m == nil {
		return
	}
	m.droppedSessions.Inc()
}

func (m *gatewayMetrics) RecordKeyRotation(reason string) {
	if m == nil {
		return
	}
	m.keyRotations.WithLabelValues(reason).Inc()
}
