// Package metrics provides Prometheus metrics collection for Storfiler.
//
// Collection is optional. Until InitRegistry is called GetRegistry returns nil
// and the constructors in the prometheus subpackage hand out no-op
// implementations, so the gateway and the HTTP adapter behave the same with
// or without metrics.
//
//	metrics.InitRegistry()
//	gw := prometheus.NewGatewayMetrics()
//	d := gateway.NewDispatcher(factory, gw)
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry creates the global registry with the Go runtime and process
// collectors attached. Calls after the first are no-ops.
func InitRegistry() {
	registryOnce.Do(func() {
		r := prometheus.NewRegistry()
		r.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		registry = r
	})
}

// GetRegistry returns the global registry, or nil when metrics are disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}
