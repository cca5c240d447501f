package config

import (
	"github.com/marmos91/storfiler/pkg/metrics"
	promMetrics "github.com/marmos91/storfiler/pkg/metrics/prometheus"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// Gateway is the collector for dispatcher operations (never nil, uses noop if disabled)
	Gateway metrics.GatewayMetrics

	// HTTP is the collector for the REST adapter (never nil, uses noop if disabled)
	HTTP metrics.HTTPMetrics
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// If metrics are enabled in the configuration:
//   - Initializes the global Prometheus registry
//   - Creates the metrics HTTP server
//   - Creates Prometheus-backed collectors for the gateway and HTTP adapter
//
// If metrics are disabled:
//   - Returns nil server
//   - Returns no-op metrics implementations (zero overhead)
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{
			Gateway: metrics.NewNoopGatewayMetrics(),
			HTTP:    metrics.NewNoopHTTPMetrics(),
		}
	}

	metrics.InitRegistry()

	return &MetricsResult{
		Server:  metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port}),
		Gateway: promMetrics.NewGatewayMetrics(),
		HTTP:    promMetrics.NewHTTPMetrics(),
	}
}
