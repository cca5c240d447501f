package prometheus

import (
	"time"

	"github.com/marmos91/storfiler/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// gatewayMetrics is the Prometheus implementation of metrics.GatewayMetrics.
type gatewayMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	endpointCalls     *prometheus.CounterVec
	bytesTransferred  *prometheus.CounterVec
}

// NewGatewayMetrics creates a Prometheus-backed GatewayMetrics instance.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry not called).
func NewGatewayMetrics() metrics.GatewayMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopGatewayMetrics()
	}

	reg := metrics.GetRegistry()

	return &gatewayMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "storfiler_gateway_operations_total",
				Help: "Total number of gateway operations by action, resource, and outcome",
			},
			[]string{"action", "resource", "outcome"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "storfiler_gateway_operation_duration_milliseconds",
				Help: "Duration of gateway operations in milliseconds",
				Buckets: []float64{
					1,     // 1ms
					10,    // 10ms
					100,   // 100ms
					1000,  // 1s
					10000, // 10s
				},
			},
			[]string{"action", "resource"},
		),
		endpointCalls: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "storfiler_gateway_endpoint_calls_total",
				Help: "Total number of per-endpoint backend calls by action, backend kind, and outcome",
			},
			[]string{"action", "kind", "outcome"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "storfiler_gateway_bytes_transferred_total",
				Help: "Total payload bytes moved through the gateway",
			},
			[]string{"direction"},
		),
	}
}

func (m *gatewayMetrics) RecordOperation(action, resource string, duration time.Duration, outcome string) {
	m.operationsTotal.WithLabelValues(action, resource, outcome).Inc()
	m.operationDuration.WithLabelValues(action, resource).Observe(duration.Seconds() * 1000) // Convert to milliseconds
}

func (m *gatewayMetrics) RecordEndpointCall(action, kind, outcome string) {
	m.endpointCalls.WithLabelValues(action, kind, outcome).Inc()
}

func (m *gatewayMetrics) RecordBytes(direction string, bytes int64) {
	m.bytesTransferred.WithLabelValues(direction).Add(float64(bytes))
}
