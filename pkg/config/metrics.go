package config

import (
	"net/http"

	"github.com/kyberchat/kyberchat/pkg/metrics"
)

// MetricsResult holds the outcome of metrics initialization.
type MetricsResult struct {
	// Server exposes /metrics. Nil when metrics are disabled; the caller
	// owns starting and shutting it down.
	Server *http.Server
}

// InitializeMetrics sets up the process-wide Prometheus registry and builds
// the metrics server when metrics are enabled. With metrics disabled it does
// nothing, and component metric constructors keep returning nil.
func InitializeMetrics(cfg *Config) MetricsResult {
	if !cfg.Metrics.Enabled {
		return MetricsResult{}
	}

	metrics.InitRegistry()

	return MetricsResult{Server: metrics.NewServer(cfg.Metrics.Port)}
}
