package testing

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/marmos91/storfiler/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunReadWriteTests covers Write, OpenRead and Exists.
func (suite *StoreTestSuite) RunReadWriteTests(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		s := suite.NewStore(t)
		data := []byte("id,value\n1,42\n")

		mustWrite(t, s, "data/report.csv", data)

		assert.Equal(t, data, mustRead(t, s, "data/report.csv"))
		assertExists(t, s, "data/report.csv", true)
	})

	t.Run("LeadingSeparatorIsEquivalent", func(t *testing.T) {
		s := suite.NewStore(t)
		mustWrite(t, s, "/a/b.txt", []byte("x"))

		assert.Equal(t, []byte("x"), mustRead(t, s, "a/b.txt"))
	})

	t.Run("Overwrite", func(t *testing.T) {
		s := suite.NewStore(t)
		mustWrite(t, s, "file.txt", []byte("first version"))
		mustWrite(t, s, "file.txt", []byte("second"))

		assert.Equal(t, []byte("second"), mustRead(t, s, "file.txt"))
	})

	t.Run("EmptyObject", func(t *testing.T) {
		s := suite.NewStore(t)
		mustWrite(t, s, "empty.bin", nil)

		assert.Empty(t, mustRead(t, s, "empty.bin"))
		assertExists(t, s, "empty.bin", true)
	})

	t.Run("ReadMissing", func(t *testing.T) {
		s := suite.NewStore(t)

		_, err := s.OpenRead(testContext(), "missing.txt")
		assert.ErrorIs(t, err, store.ErrNotFound)
		assertExists(t, s, "missing.txt", false)
	})

	t.Run("UnknownLengthRejected", func(t *testing.T) {
		s := suite.NewStore(t)

		err := s.Write(testContext(), "x.txt", struct{ io.Reader }{strings.NewReader("data")})
		assert.ErrorIs(t, err, store.ErrInvalidInput)
		assertExists(t, s, "x.txt", false)
	})
}

// RunDeleteTests covers Delete.
func (suite *StoreTestSuite) RunDeleteTests(t *testing.T) {
	t.Run("DeleteExisting", func(t *testing.T) {
		s := suite.NewStore(t)
		mustWrite(t, s, "gone.txt", []byte("bye"))

		require.NoError(t, s.Delete(testContext(), "gone.txt"))
		assertExists(t, s, "gone.txt", false)
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		s := suite.NewStore(t)

		err := s.Delete(testContext(), "never.txt")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("DeleteLeavesSiblings", func(t *testing.T) {
		s := suite.NewStore(t)
		mustWrite(t, s, "dir/a.txt", []byte("a"))
		mustWrite(t, s, "dir/b.txt", []byte("b"))

		require.NoError(t, s.Delete(testContext(), "dir/a.txt"))
		assertExists(t, s, "dir/b.txt", true)
	})
}

// RunListTests covers List.
func (suite *StoreTestSuite) RunListTests(t *testing.T) {
	seed := func(t *testing.T) store.Store {
		s := suite.NewStore(t)
		mustWrite(t, s, "top.txt", []byte("t"))
		mustWrite(t, s, "daily/a.csv", []byte("a"))
		mustWrite(t, s, "daily/b.csv", []byte("b"))
		mustWrite(t, s, "daily/2024/c.csv", []byte("c"))
		mustWrite(t, s, "dailyish/d.csv", []byte("d"))
		return s
	}

	t.Run("Flat", func(t *testing.T) {
		s := seed(t)

		blobs, err := s.List(testContext(), store.ListOptions{Prefix: "/daily"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"daily/a.csv", "daily/b.csv"}, ids(blobs))
	})

	t.Run("Recursive", func(t *testing.T) {
		s := seed(t)

		blobs, err := s.List(testContext(), store.ListOptions{Prefix: "daily", Recursive: true})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"daily/a.csv", "daily/b.csv", "daily/2024/c.csv"}, ids(blobs))
	})

	t.Run("RootFlat", func(t *testing.T) {
		s := seed(t)

		blobs, err := s.List(testContext(), store.ListOptions{Prefix: "/"})
		require.NoError(t, err)
		assert.Equal(t, []string{"top.txt"}, ids(blobs))
	})

	t.Run("BlobShape", func(t *testing.T) {
		s := seed(t)

		blobs, err := s.List(testContext(), store.ListOptions{Prefix: "daily/2024"})
		require.NoError(t, err)
		require.Len(t, blobs, 1)
		assert.Equal(t, "daily/2024/c.csv", blobs[0].ID)
		assert.Equal(t, "/daily/2024/c.csv", blobs[0].FullPath)
		assert.Equal(t, "/daily/2024", blobs[0].FolderPath)
	})

	t.Run("ListedIDsAreReadable", func(t *testing.T) {
		s := seed(t)

		blobs, err := s.List(testContext(), store.ListOptions{Recursive: true})
		require.NoError(t, err)
		require.Len(t, blobs, 5)
		for _, b := range blobs {
			assertExists(t, s, b.FullPath, true)
		}
	})

	t.Run("MissingPrefixIsEmpty", func(t *testing.T) {
		s := seed(t)

		blobs, err := s.List(testContext(), store.ListOptions{Prefix: "nowhere", Recursive: true})
		require.NoError(t, err)
		assert.Empty(t, blobs)
	})
}

// RunCancellationTests checks that a done context aborts before any I/O.
func (suite *StoreTestSuite) RunCancellationTests(t *testing.T) {
	s := suite.NewStore(t)
	mustWrite(t, s, "kept.txt", []byte("k"))

	ctx, cancel := context.WithCancel(testContext())
	cancel()

	_, err := s.List(ctx, store.ListOptions{Recursive: true})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.OpenRead(ctx, "kept.txt")
	assert.ErrorIs(t, err, context.Canceled)

	err = s.Write(ctx, "new.txt", bytes.NewReader([]byte("n")))
	assert.ErrorIs(t, err, context.Canceled)

	err = s.Delete(ctx, "kept.txt")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.Exists(ctx, "kept.txt")
	assert.ErrorIs(t, err, context.Canceled)

	assertExists(t, s, "kept.txt", true)
}
