package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/marmos91/storfiler/pkg/store"
	storetesting "github.com/marmos91/storfiler/pkg/store/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryStore runs the complete store suite against a memory bucket.
func TestMemoryStore(t *testing.T) {
	suite := &storetesting.StoreTestSuite{
		NewStore: func(t *testing.T) store.Store {
			return NewBucket("suite").Store("")
		},
	}

	suite.Run(t)
}

// TestMemoryStore_Rooted runs the suite again under a root override so the
// key prefixing paths of the object store are exercised too.
func TestMemoryStore_Rooted(t *testing.T) {
	suite := &storetesting.StoreTestSuite{
		NewStore: func(t *testing.T) store.Store {
			return NewBucket("suite").Store("/tenant/a")
		},
	}

	suite.Run(t)
}

func TestBucket_RootOverrideSharesKeys(t *testing.T) {
	ctx := context.Background()
	b := NewBucket("shared")

	require.NoError(t, b.Store("data").Write(ctx, "report.csv", strings.NewReader("r")))

	ok, err := b.Store("").Exists(ctx, "/data/report.csv")
	require.NoError(t, err)
	assert.True(t, ok)

	blobs, err := b.Store("").List(ctx, store.ListOptions{Prefix: "data"})
	require.NoError(t, err)
	require.Len(t, blobs, 1)
	assert.Equal(t, "/data/report.csv", blobs[0].FullPath)
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, "memory", b.Store("").Kind())
}
