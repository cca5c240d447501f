package rest

import (
	"fmt"
	"strings"
	"time"
)

// RESTConfig holds configuration parameters for the HTTP front end.
//
// Default values (applied by New if zero):
//   - Port: 8080
//   - BasePath: "/api"
//   - ReadTimeout: 30s
//   - WriteTimeout: 5m (downloads stream within the write window)
//   - IdleTimeout: 2m
//   - RequestTimeout: 60s
//   - MaxUploadBytes: 32 MiB
//   - ShutdownTimeout: 30s
type RESTConfig struct {
	// Enabled controls whether the HTTP adapter is active.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the TCP port to listen on. 0 lets the OS pick one.
	Port int `mapstructure:"port" validate:"min=0,max=65535" yaml:"port"`

	// BasePath prefixes every resource route, e.g. /api/reports/...
	BasePath string `mapstructure:"base_path" validate:"omitempty,startswith=/" yaml:"base_path"`

	// ReadTimeout bounds reading a complete request, including upload bodies.
	ReadTimeout time.Duration `mapstructure:"read_timeout" validate:"min=0" yaml:"read_timeout"`

	// WriteTimeout bounds writing a response.
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"min=0" yaml:"write_timeout"`

	// IdleTimeout closes keep-alive connections idle for longer.
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"min=0" yaml:"idle_timeout"`

	// RequestTimeout bounds the backend work of a single request.
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"min=0" yaml:"request_timeout"`

	// MaxUploadBytes caps the size of an Add request body.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" validate:"min=0" yaml:"max_upload_bytes"`

	// CORS enables permissive cross-origin headers and preflight handling.
	CORS bool `mapstructure:"cors" yaml:"cors"`

	// ShutdownTimeout is the maximum duration to wait for in-flight requests
	// during graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0" yaml:"shutdown_timeout"`

	// RateLimit throttles requests per client address.
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// RateLimitConfig configures per-client request throttling.
// A zero RequestsPerSecond disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"min=0" yaml:"requests_per_second"`

	// Burst defaults to twice RequestsPerSecond.
	Burst int `mapstructure:"burst" validate:"min=0" yaml:"burst"`
}

// applyDefaults fills in zero values with sensible defaults.
//
// Port is left alone so 0 can request an ephemeral port; pkg/config owns the
// 8080 default for file-based configuration.
func (c *RESTConfig) applyDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	c.BasePath = "/" + strings.Trim(c.BasePath, "/")
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 5 * time.Minute
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 2 * time.Minute
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 60 * time.Second
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = 32 << 20
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
}

func (c *RESTConfig) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be 0-65535", c.Port)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.IdleTimeout < 0 || c.RequestTimeout < 0 {
		return fmt.Errorf("invalid timeouts: must be >= 0")
	}
	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("invalid MaxUploadBytes %d: must be >= 0", c.MaxUploadBytes)
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("invalid rate limit: values must be >= 0")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid ShutdownTimeout %v: must be > 0", c.ShutdownTimeout)
	}
	return nil
}
