package config

import (
	"fmt"

	"github.com/marmos91/storfiler/pkg/adapter"
	"github.com/marmos91/storfiler/pkg/adapter/rest"
	"github.com/marmos91/storfiler/pkg/gateway"
	"github.com/marmos91/storfiler/pkg/metrics"
)

// Adapters holds the adapters created from configuration.
type Adapters struct {
	// All lists every enabled adapter, ready to be added to the server
	All []adapter.Adapter

	// REST is the HTTP adapter, or nil when disabled. Catalog reloads go
	// through it.
	REST *rest.RESTAdapter
}

// CreateAdapters creates all enabled protocol adapters from the configuration.
//
// Parameters:
//   - cfg: The complete Storfiler configuration
//   - cat: The catalog to serve
//   - d: The dispatcher shared by every adapter
//   - httpMetrics: Optional HTTP metrics collector (nil = no metrics)
//
// Returns:
//   - *Adapters: Enabled adapters
//   - error: Any error during adapter creation
func CreateAdapters(cfg *Config, cat *gateway.Catalog, d *gateway.Dispatcher, httpMetrics metrics.HTTPMetrics) (*Adapters, error) {
	out := &Adapters{}

	if cfg.Adapters.HTTP.Enabled {
		a, err := rest.New(cfg.Adapters.HTTP, cat, d, httpMetrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP adapter: %w", err)
		}
		out.REST = a
		out.All = append(out.All, a)
	}

	if len(out.All) == 0 {
		return nil, fmt.Errorf("no adapters enabled in configuration")
	}

	return out, nil
}
