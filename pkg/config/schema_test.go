package config

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSchema(&buf))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "Storfiler Configuration", doc["title"])

	props := doc["properties"].(map[string]any)
	for _, key := range []string{"logging", "server", "metrics", "adapters", "resources"} {
		assert.Contains(t, props, key)
	}

	logging := props["logging"].(map[string]any)["properties"].(map[string]any)
	assert.ElementsMatch(t, []any{"DEBUG", "INFO", "WARN", "ERROR"}, logging["level"].(map[string]any)["enum"])

	server := props["server"].(map[string]any)["properties"].(map[string]any)
	timeout := server["shutdown_timeout"].(map[string]any)
	assert.Equal(t, "string", timeout["type"])
	assert.Regexp(t, timeout["pattern"], "30s")
	assert.Regexp(t, timeout["pattern"], "1h30m")
}
