package metrics

// GatewayMetrics provides observability for the websocket gateway.
//
// Implementations track session lifecycle, event throughput and completed
// key rotations. This interface is optional - pass nil to disable metrics
// collection with zero overhead.
//
// Example usage:
//
//	// With metrics enabled
//	metrics.InitRegistry()
//	hub.SetMetrics(metrics.NewGatewayMetrics())
//
//	// Without metrics (zero overhead)
//	hub.SetMetrics(nil)
type GatewayMetrics interface {
	// RecordSessionConnected increments the connected sessions gauge.
	// Called once per connection that passes the auth handshake.
	RecordSessionConnected()

	// RecordSessionDisconnected decrements the connected sessions gauge.
	RecordSessionDisconnected()

	// RecordEventReceived records one inbound event.
	//
	// Parameters:
	//   - event: inbound event name (e.g., "send_message"); callers must
	//     clamp unrecognized client-supplied names to a fixed value
	RecordEventReceived(event string)

	// RecordEventSent records one outbound event accepted into a session
	// send queue.
	//
	// Parameters:
	//   - event: outbound event name (e.g., "new_message", "key_rotated")
	RecordEventSent(event string)

	// RecordSessionDropped records a session torn down for falling behind
	// on its send queue.
	RecordSessionDropped()

	// RecordKeyRotation records a completed room key rotation.
	//
	// Parameters:
	//   - reason: what drove the rotation (e.g., "manual", "invite")
	RecordKeyRotation(reason string)
}

// NewGatewayMetrics creates a new Prometheus-backed GatewayMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
// When nil is returned, callers should pass nil to the hub, which results
// in zero overhead.
//
// Example usage:
//
//	// With metrics enabled
//	metrics.InitRegistry()
//	hub.SetMetrics(metrics.NewGatewayMetrics())
//
//	// Without metrics (zero overhead)
//	hub.SetMetrics(nil)
func NewGatewayMetrics() GatewayMetrics {
	if !IsEnabled() {
		return nil
	}
	if newPrometheusGatewayMetrics == nil {
		return nil
	}

	return newPrometheusGatewayMetrics()
}

// newPrometheusGatewayMetrics is implemented in pkg/metrics/prometheus.
// The indirection keeps the implementation behind a blank import while the
// API stays here.
var newPrometheusGatewayMetrics func() GatewayMetrics

// RegisterGatewayMetricsConstructor registers the Prometheus gateway metrics
// constructor. Called by pkg/metrics/prometheus during package initialization.
func RegisterGatewayMetricsConstructor(constructor func() GatewayMetrics) {
	newPrometheusGatewayMetrics = constructor
}
