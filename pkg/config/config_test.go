package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultConfig(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
logging:
  level: "INFO"

resources:
  - name: reports
    provider:
      kind: directory
      directory:
        path: /srv/reports
    methods:
      - { verb: get, path: /, action: List }
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if !cfg.Adapters.HTTP.Enabled || cfg.Adapters.HTTP.Port != 8080 {
		t.Errorf("Expected HTTP adapter enabled on 8080, got enabled=%v port=%d",
			cfg.Adapters.HTTP.Enabled, cfg.Adapters.HTTP.Port)
	}
	if cfg.Resources[0].Methods[0].Verb != "GET" {
		t.Errorf("Expected verb normalized to 'GET', got %q", cfg.Resources[0].Methods[0].Verb)
	}
	if cfg.Resources[0].Endpoint == nil || cfg.Resources[0].Endpoint.Path != "/" {
		t.Errorf("Expected a root endpoint for a resource without endpoints, got %+v", cfg.Resources[0].Endpoint)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// An explicit path keeps the test away from ~/.config/storfiler/
	nonExistentPath := filepath.Join(t.TempDir(), "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error with missing config file, got: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if len(cfg.Resources) != 1 || cfg.Resources[0].Name != "files" {
		t.Errorf("Expected the default 'files' resource, got %+v", cfg.Resources)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid.yaml", `
logging:
  level: INFO
  invalid yaml here [[[
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_TOML(t *testing.T) {
	configPath := writeConfig(t, "config.toml", `
[logging]
level = "WARN"
format = "json"

[[resources]]
name = "scratch"

[resources.provider]
kind = "memory"

[[resources.methods]]
verb = "GET"
path = "/"
action = "List"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected level 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected format 'json', got %q", cfg.Logging.Format)
	}
	if cfg.Resources[0].Provider == nil || cfg.Resources[0].Provider.Kind != "memory" {
		t.Errorf("Expected memory provider, got %+v", cfg.Resources[0].Provider)
	}
}

func TestLoad_RejectsInvalidResource(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
resources:
  - name: reports
    methods:
      - { verb: GET, path: /, action: List, endpoint: { path: /daily } }
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for an endpoint without any provider, got nil")
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Expected default metrics port 9090, got %d", cfg.Metrics.Port)
	}
	if cfg.Adapters.HTTP.BasePath != "/api" {
		t.Errorf("Expected default base path '/api', got %q", cfg.Adapters.HTTP.BasePath)
	}
	if cfg.Adapters.HTTP.MaxUploadBytes != 32<<20 {
		t.Errorf("Expected default upload limit 32MiB, got %d", cfg.Adapters.HTTP.MaxUploadBytes)
	}
	if len(cfg.Resources) != 1 {
		t.Fatalf("Expected 1 default resource, got %d", len(cfg.Resources))
	}
	if len(cfg.Resources[0].Methods) != 6 {
		t.Errorf("Expected every action mapped on the default resource, got %d methods", len(cfg.Resources[0].Methods))
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()

	if !filepath.IsAbs(path) {
		t.Errorf("Expected absolute path, got %q", path)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected filename 'config.yaml', got %q", filepath.Base(path))
	}
}

func TestGetConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if filepath.Base(GetConfigDir()) != "storfiler" {
		t.Errorf("Expected directory name 'storfiler', got %q", filepath.Base(GetConfigDir()))
	}
	if ConfigExists() {
		t.Error("Expected no config in a fresh XDG_CONFIG_HOME")
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("STORFILER_LOGGING_LEVEL", "ERROR")
	t.Setenv("STORFILER_ADAPTERS_HTTP_PORT", "9443")
	t.Setenv("STORFILER_SERVER_MAX_FANOUT", "4")

	configPath := writeConfig(t, "config.yaml", `
logging:
  level: "INFO"

adapters:
  http:
    enabled: true
    port: 8080
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.Adapters.HTTP.Port != 9443 {
		t.Errorf("Expected port 9443 from env var, got %d", cfg.Adapters.HTTP.Port)
	}
	if cfg.Server.MaxFanout != 4 {
		t.Errorf("Expected max_fanout 4 from env var, got %d", cfg.Server.MaxFanout)
	}
}
