package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marmos91/storfiler/pkg/config"
	"github.com/marmos91/storfiler/pkg/gateway"
	"github.com/marmos91/storfiler/pkg/provider"
	"github.com/marmos91/storfiler/pkg/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const e2eConfig = `
logging:
  level: ERROR

adapters:
  http:
    enabled: true
    port: %d

resources:
  - name: docs
    provider:
      kind: directory
      directory:
        path: %s
    methods:
      - { verb: GET, path: /, action: List, recursive: true }
      - { verb: GET, path: "/files/{*file}", action: Download }
      - { verb: GET, path: /search, action: Search, query: name, pattern: "{fileName}*" }
      - { verb: DELETE, path: /, action: Remove, query: file }
      - verb: POST
        path: /
        action: Add
        write_endpoints:
          - { path: / }
          - { path: /, provider: { kind: memory, memory: { name: mirror } } }
      - verb: GET
        path: /mirror
        action: List
        recursive: true
        read_endpoint: { path: /, provider: { kind: memory, memory: { name: mirror } } }
`

func findFreePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port
}

// startGateway wires the full stack from a config file the way cmd/storfiler
// does and returns the base URL.
func startGateway(t *testing.T, root string) string {
	t.Helper()

	port := findFreePort(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(e2eConfig, port, root)), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	cat, err := config.BuildCatalog(cfg)
	require.NoError(t, err)

	m := config.InitializeMetrics(cfg)
	d := gateway.NewDispatcher(provider.NewFactory(), m.Gateway, gateway.WithMaxFanout(cfg.Server.MaxFanout))
	adapters, err := config.CreateAdapters(cfg, cat, d, m.HTTP)
	require.NoError(t, err)

	srv := server.New(cfg.Server.ShutdownTimeout)
	for _, a := range adapters.All {
		require.NoError(t, srv.AddAdapter(a))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(10 * time.Second):
			t.Error("gateway did not stop")
		}
	})

	base := fmt.Sprintf("http://127.0.0.1:%d/api/docs", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return true
	}, 5*time.Second, 20*time.Millisecond)

	return base
}

func listPaths(t *testing.T, url string) []string {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []gateway.FileEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.FullPath
	}
	return paths
}

func TestGateway_EndToEnd(t *testing.T) {
	root := t.TempDir()
	base := startGateway(t, root)

	// Add fans out to the directory and the memory mirror
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("files", "jan.csv")
	require.NoError(t, err)
	_, _ = io.WriteString(part, "month,total\njan,10\n")
	require.NoError(t, w.Close())

	resp, err := http.Post(base+"?folder=reports", w.FormDataContentType(), body)
	require.NoError(t, err)
	var report gateway.UploadReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, report.Succeeded)

	_, err = os.Stat(filepath.Join(root, "reports", "jan.csv"))
	require.NoError(t, err)

	assert.Contains(t, listPaths(t, base), "/reports/jan.csv")
	assert.Contains(t, listPaths(t, base+"/mirror"), "/reports/jan.csv")
	assert.Contains(t, listPaths(t, base+"/search?name=ja"), "/reports/jan.csv")

	// Download through the catch-all route
	resp, err = http.Get(base + "/files/reports/jan.csv")
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "month,total\njan,10\n", string(data))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "jan.csv")

	// Remove, then the file is gone
	req, _ := http.NewRequest(http.MethodDelete, base+"?file=/reports/jan.csv", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(base + "/files/reports/jan.csv")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
