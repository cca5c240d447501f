package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const fileHeader = "Storfiler Configuration File\n\n" +
	"Environment variables override file values, e.g. STORFILER_LOGGING_LEVEL=DEBUG"

// sectionComments are written above the top-level keys of a sample file.
var sectionComments = map[string]string{
	"logging":   "Logging: level (DEBUG, INFO, WARN, ERROR), format (text, json), output (stdout, stderr, file path)",
	"server":    "Server-wide settings. max_fanout bounds concurrent backend calls per request (0 = unbounded)",
	"metrics":   "Prometheus metrics server (/metrics, /healthz)",
	"adapters":  "Protocol adapters",
	"resources": "Resources are served at {base_path}/{name}/{method path}.\nProvider kinds: directory, cloud_blob, s3, memory",
}

// InitConfig writes a sample configuration to the default location.
//
// Parameters:
//   - force: Overwrite an existing file
//
// Returns the path of the written file.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a sample configuration to path, creating parent
// directories as needed. An existing file is only replaced when force is set.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	if err := WriteSample(&buf, GetDefaultConfig()); err != nil {
		return err
	}

	// Provider sections may hold credentials
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// WriteSample renders cfg as commented YAML.
func WriteSample(w io.Writer, cfg *Config) error {
	out, err := generateYAMLWithComments(cfg)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func generateYAMLWithComments(cfg *Config) (string, error) {
	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}

	humanizeDurations(&doc)

	if doc.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(doc.Content); i += 2 {
			if comment, ok := sectionComments[doc.Content[i].Value]; ok {
				doc.Content[i].HeadComment = comment
			}
		}
		if len(doc.Content) > 0 {
			first := doc.Content[0]
			first.HeadComment = fileHeader + "\n\n" + first.HeadComment
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return "", fmt.Errorf("failed to render config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// humanizeDurations rewrites *_timeout values from nanoseconds to strings
// such as "30s". yaml.v3 encodes time.Duration as a plain integer.
func humanizeDurations(n *yaml.Node) {
	if n.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, value := n.Content[i], n.Content[i+1]
			if strings.HasSuffix(key.Value, "_timeout") && value.Kind == yaml.ScalarNode && value.Tag == "!!int" {
				var ns int64
				if err := value.Decode(&ns); err == nil {
					value.SetString(time.Duration(ns).String())
				}
			}
		}
	}
	for _, child := range n.Content {
		humanizeDurations(child)
	}
}
