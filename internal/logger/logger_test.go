package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"Warn", LevelWarn},
		{"ERROR", LevelError},
		{"bogus", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestInit_JSONFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storfiler.log")

	require.NoError(t, Init(Config{Level: "WARN", Format: "json", Output: path}))
	t.Cleanup(func() {
		_ = Init(Config{Level: "INFO", Format: "text", Output: "stdout"})
	})

	Info("filtered %d", 1)
	Warn("kept %s", "entry")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "kept entry", entry["msg"])
}

func TestInit_UnknownFormat(t *testing.T) {
	err := Init(Config{Level: "INFO", Format: "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}
