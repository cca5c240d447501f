package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/storfiler/pkg/adapter/rest"
	"github.com/spf13/viper"
)

// Config represents the complete Storfiler configuration.
//
// This structure captures all configurable aspects of the gateway:
//   - Logging configuration
//   - Server-wide settings (shutdown, fan-out limits)
//   - Metrics exposure
//   - Protocol adapter configurations
//   - Resources, their endpoints and the methods routed to them
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (STORFILER_*)
//  3. Configuration file (YAML, TOML or JSON)
//  4. Default values (lowest priority)
//
// Provider Configuration Pattern:
// A provider names its kind and carries one kind-specific section
// (e.g., provider.directory, provider.s3). Only the section matching the
// kind is decoded; see BuildCatalog.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Server contains server-wide settings
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Metrics controls the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Adapters contains protocol adapter configurations
	Adapters AdaptersConfig `mapstructure:"adapters" yaml:"adapters"`

	// Resources defines the routed resources
	Resources []ResourceConfig `mapstructure:"resources" validate:"dive" yaml:"resources"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// ServerConfig contains server-wide settings.
type ServerConfig struct {
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// MaxFanout bounds concurrent backend calls per request (0 = unbounded)
	MaxFanout int `mapstructure:"max_fanout" validate:"min=0" yaml:"max_fanout"`

	// Watch reloads the resource catalog when the config file changes
	Watch bool `mapstructure:"watch" yaml:"watch"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	// Enabled starts the metrics server and Prometheus collectors
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the TCP port of the metrics server
	Port int `mapstructure:"port" validate:"min=0,max=65535" yaml:"port"`
}

// AdaptersConfig contains all protocol adapter configurations.
type AdaptersConfig struct {
	// HTTP contains the REST adapter configuration.
	// Uses the rest.RESTConfig type directly to avoid duplication.
	HTTP rest.RESTConfig `mapstructure:"http" yaml:"http"`
}

// ProviderConfig selects a storage provider and holds its settings.
//
// Kind selects which of the kind-specific sections is used:
//   - directory: path
//   - cloud_blob: account, key, container, endpoint
//   - s3: region, bucket, endpoint, access_key_id, secret_access_key,
//     force_path_style, key_prefix
//   - memory: name
type ProviderConfig struct {
	Kind string `mapstructure:"kind" validate:"required,oneof=directory cloud_blob s3 memory" yaml:"kind"`

	Directory map[string]any `mapstructure:"directory" yaml:"directory,omitempty"`
	CloudBlob map[string]any `mapstructure:"cloud_blob" yaml:"cloud_blob,omitempty"`
	S3        map[string]any `mapstructure:"s3" yaml:"s3,omitempty"`
	Memory    map[string]any `mapstructure:"memory" yaml:"memory,omitempty"`
}

// EndpointConfig binds a path prefix to a provider.
// A missing provider is inherited from the enclosing resource.
type EndpointConfig struct {
	Path       string          `mapstructure:"path" yaml:"path"`
	IsRegex    bool            `mapstructure:"is_regex" yaml:"is_regex,omitempty"`
	IsFullPath bool            `mapstructure:"is_full_path" yaml:"is_full_path,omitempty"`
	Provider   *ProviderConfig `mapstructure:"provider" yaml:"provider,omitempty"`
}

// EndpointSet is the endpoint configuration shared by resources and methods.
// Which fields apply to a request is decided by gateway.ResolveRead and
// gateway.ResolveWrite.
type EndpointSet struct {
	Endpoint       *EndpointConfig  `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Endpoints      []EndpointConfig `mapstructure:"endpoints" validate:"dive" yaml:"endpoints,omitempty"`
	ReadEndpoint   *EndpointConfig  `mapstructure:"read_endpoint" yaml:"read_endpoint,omitempty"`
	ReadEndpoints  []EndpointConfig `mapstructure:"read_endpoints" validate:"dive" yaml:"read_endpoints,omitempty"`
	WriteEndpoint  *EndpointConfig  `mapstructure:"write_endpoint" yaml:"write_endpoint,omitempty"`
	WriteEndpoints []EndpointConfig `mapstructure:"write_endpoints" validate:"dive" yaml:"write_endpoints,omitempty"`
}

// empty reports whether no endpoint of any kind is configured.
func (s *EndpointSet) empty() bool {
	return s.Endpoint == nil && s.ReadEndpoint == nil && s.WriteEndpoint == nil &&
		len(s.Endpoints) == 0 && len(s.ReadEndpoints) == 0 && len(s.WriteEndpoints) == 0
}

// MethodConfig routes one verb and path below a resource to an action.
type MethodConfig struct {
	// Verb is the HTTP verb (case-insensitive)
	Verb string `mapstructure:"verb" validate:"required" yaml:"verb"`

	// Path is the route template, e.g. /files/{*file}
	Path string `mapstructure:"path" validate:"required,startswith=/" yaml:"path"`

	// Action is one of List, Download, Add, Remove, Search
	Action string `mapstructure:"action" validate:"required" yaml:"action"`

	// Pattern is the search template; {fileName} is replaced by the term
	Pattern string `mapstructure:"pattern" yaml:"pattern,omitempty"`

	// Query names the parameter carrying the path or search term
	Query string `mapstructure:"query" yaml:"query,omitempty"`

	// IsFullPath overrides the endpoints' is_full_path when set
	IsFullPath *bool `mapstructure:"is_full_path" yaml:"is_full_path,omitempty"`

	// Recursive makes List descend into nested folders
	Recursive bool `mapstructure:"recursive" yaml:"recursive,omitempty"`

	EndpointSet `mapstructure:",squash" yaml:",inline"`
}

// ResourceConfig is a named group of methods sharing endpoint defaults.
type ResourceConfig struct {
	// Name is the first route segment below the base path
	Name string `mapstructure:"name" validate:"required,excludesall=/ " yaml:"name"`

	// Provider is inherited by endpoints that do not name one
	Provider *ProviderConfig `mapstructure:"provider" yaml:"provider,omitempty"`

	EndpointSet `mapstructure:",squash" yaml:",inline"`

	Methods []MethodConfig `mapstructure:"methods" validate:"required,min=1,dive" yaml:"methods"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (STORFILER_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use STORFILER_ prefix and underscores
	// Example: STORFILER_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("STORFILER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/storfiler/config.{yaml,toml,json}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// bindEnvKeys registers the scalar keys so AutomaticEnv overrides them even
// when the config file does not mention them.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"logging.level", "logging.format", "logging.output",
		"server.shutdown_timeout", "server.max_fanout", "server.watch",
		"metrics.enabled", "metrics.port",
		"adapters.http.enabled", "adapters.http.port", "adapters.http.base_path",
		"adapters.http.request_timeout", "adapters.http.max_upload_bytes", "adapters.http.cors",
		"adapters.http.rate_limit.requests_per_second", "adapters.http.rate_limit.burst",
	} {
		_ = v.BindEnv(key)
	}
}

// readConfigFile reads the configuration file if it exists.
//
// A missing file is not an error: the defaults describe a runnable gateway.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "storfiler")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "storfiler")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
