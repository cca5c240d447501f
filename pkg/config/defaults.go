package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/storfiler/pkg/adapter/rest"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Provider-specific defaults are handled when the catalog is built
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyMetricsDefaults(&cfg.Metrics)

	// Serve a scratch directory if no resource is configured
	if len(cfg.Resources) == 0 {
		cfg.Resources = []ResourceConfig{defaultResource()}
	}

	applyResourceDefaults(cfg.Resources)
	applyAdaptersDefaults(&cfg.Adapters)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applyResourceDefaults normalizes verbs and gives resources without any
// endpoint a root endpoint, so they serve their provider as a whole.
func applyResourceDefaults(resources []ResourceConfig) {
	for i := range resources {
		r := &resources[i]

		if r.EndpointSet.empty() && r.Provider != nil {
			r.Endpoint = &EndpointConfig{Path: "/"}
		}

		for j := range r.Methods {
			m := &r.Methods[j]
			m.Verb = strings.ToUpper(m.Verb)
		}
	}
}

// applyAdaptersDefaults sets adapter defaults.
func applyAdaptersDefaults(cfg *AdaptersConfig) {
	// Enable the HTTP adapter unless it was configured explicitly. A port of
	// 0 means the section was absent, so a config without adapters still
	// serves something; enabled: false with a port keeps it disabled.
	if !cfg.HTTP.Enabled && cfg.HTTP.Port == 0 {
		cfg.HTTP.Enabled = true
	}

	applyHTTPDefaults(&cfg.HTTP)
}

func applyHTTPDefaults(cfg *rest.RESTConfig) {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.BasePath == "" {
		cfg.BasePath = "/api"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Minute
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 2 * time.Minute
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 32 << 20 // 32 MiB
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// defaultResource serves a scratch directory with every action mapped.
func defaultResource() ResourceConfig {
	return ResourceConfig{
		Name: "files",
		Provider: &ProviderConfig{
			Kind: "directory",
			Directory: map[string]any{
				"path": filepath.Join(os.TempDir(), "storfiler"),
			},
		},
		Methods: []MethodConfig{
			{Verb: "GET", Path: "/", Action: "List", Recursive: true},
			{Verb: "GET", Path: "/download", Action: "Download", Query: "file"},
			{Verb: "GET", Path: "/files/{*file}", Action: "Download", Query: "file"},
			{Verb: "POST", Path: "/", Action: "Add", Query: "folder"},
			{Verb: "DELETE", Path: "/", Action: "Remove", Query: "file"},
			{Verb: "GET", Path: "/search", Action: "Search", Query: "name", Pattern: "{fileName}*"},
		},
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Adapters: AdaptersConfig{
			HTTP: rest.RESTConfig{
				Enabled: true,
				CORS:    true,
			},
		},
		Resources: []ResourceConfig{defaultResource()},
	}

	ApplyDefaults(cfg)
	return cfg
}
