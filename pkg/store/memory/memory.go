// Package memory provides a volatile in-process bucket.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/marmos91/storfiler/pkg/store"
	"github.com/marmos91/storfiler/pkg/store/object"
)

// Kind is the backend family reported by stores built on a Bucket.
const Kind = "memory"

// Bucket implements object.Bucket using a map.
//
// Characteristics:
//   - Volatile: data is lost on restart
//   - Listing order is lexical by key
//   - Thread-safe: protected by a RWMutex; data is copied on read and write
//     so callers never share buffers with the bucket
type Bucket struct {
	name string

	// mu protects data
	mu   sync.RWMutex
	data map[string][]byte
}

// NewBucket creates an empty named bucket.
func NewBucket(name string) *Bucket {
	return &Bucket{
		name: name,
		data: make(map[string][]byte),
	}
}

// Name returns the bucket name.
func (b *Bucket) Name() string {
	return b.name
}

// Store returns a store.Store over the bucket rooted at root.
func (b *Bucket) Store(root string) *object.Store {
	return object.New(Kind, b, root)
}

// ListKeys returns keys with prefix in lexical order.
func (b *Bucket) ListKeys(ctx context.Context, prefix string, delimited bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0)
	for key := range b.data {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if delimited && strings.Contains(key[len(prefix):], "/") {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Get returns a reader over a copy of the object at key.
func (b *Bucket) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	data, ok := b.data[key]
	b.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("key %s: %w", key, store.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(data))), nil
}

// Put stores size bytes read from r at key.
func (b *Bucket) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("failed to read source for %s: %w", key, err)
	}

	b.mu.Lock()
	b.data[key] = buf
	b.mu.Unlock()
	return nil
}

// Remove deletes key. Missing keys yield store.ErrNotFound.
func (b *Bucket) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.data[key]; !ok {
		return fmt.Errorf("key %s: %w", key, store.ErrNotFound)
	}
	delete(b.data, key)
	return nil
}

// Head reports whether key exists.
func (b *Bucket) Head(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	b.mu.RLock()
	_, ok := b.data[key]
	b.mu.RUnlock()
	return ok, nil
}

// Len returns the number of stored objects.
func (b *Bucket) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}

var _ object.Bucket = (*Bucket)(nil)
