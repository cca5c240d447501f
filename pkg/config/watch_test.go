package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/marmos91/storfiler/pkg/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const watchedConfig = `
resources:
  - name: %s
    provider:
      kind: memory
    methods:
      - { verb: GET, path: /, action: List }
`

// replaceFile swaps content in atomically so the watcher never reads a
// half-written file.
func replaceFile(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0644))
	require.NoError(t, os.Rename(tmp, path))
}

type reloads struct {
	mu    sync.Mutex
	names []string
}

func (r *reloads) apply(_ *Config, cat *gateway.Catalog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range cat.Resources() {
		r.names = append(r.names, res.Name)
	}
}

func (r *reloads) seen(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.names {
		if n == name {
			return true
		}
	}
	return false
}

func TestWatch_AppliesValidChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	replaceFile(t, path, sprintfConfig("first"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got reloads
	require.NoError(t, Watch(ctx, path, got.apply))

	replaceFile(t, path, sprintfConfig("second"))

	assert.Eventually(t, func() bool { return got.seen("second") }, 5*time.Second, 20*time.Millisecond)
}

func TestWatch_IgnoresInvalidChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	replaceFile(t, path, sprintfConfig("first"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got reloads
	require.NoError(t, Watch(ctx, path, got.apply))

	// No provider anywhere, so the catalog cannot be built
	replaceFile(t, path, `
resources:
  - name: broken
    methods:
      - { verb: GET, path: /, action: List }
`)
	replaceFile(t, path, sprintfConfig("third"))

	assert.Eventually(t, func() bool { return got.seen("third") }, 5*time.Second, 20*time.Millisecond)
	assert.False(t, got.seen("broken"))
}

func TestWatch_MissingFile(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"), func(*Config, *gateway.Catalog) {})
	assert.Error(t, err)
}

func sprintfConfig(name string) string {
	return fmt.Sprintf(watchedConfig, name)
}
