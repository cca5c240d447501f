package testing

import (
	"bytes"
	"io"
	"testing"

	"github.com/marmos91/storfiler/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustWrite writes data at id and fails the test on error.
func mustWrite(t *testing.T, s store.Store, id string, data []byte) {
	t.Helper()
	require.NoError(t, s.Write(testContext(), id, bytes.NewReader(data)), "Write %s should succeed", id)
}

// mustRead reads the object at id and fails the test on error.
func mustRead(t *testing.T, s store.Store, id string) []byte {
	t.Helper()
	r, err := s.OpenRead(testContext(), id)
	require.NoError(t, err, "OpenRead %s should succeed", id)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return data
}

// assertExists checks the Exists answer for id.
func assertExists(t *testing.T, s store.Store, id string, expected bool) {
	t.Helper()
	ok, err := s.Exists(testContext(), id)
	require.NoError(t, err, "Exists should not error")
	assert.Equal(t, expected, ok, "existence mismatch for %s", id)
}

// ids extracts the blob ids in order.
func ids(blobs []store.Blob) []string {
	out := make([]string, len(blobs))
	for i, b := range blobs {
		out[i] = b.ID
	}
	return out
}
