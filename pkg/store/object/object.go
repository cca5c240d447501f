// Package object implements store.Store for flat key/value backends.
//
// Blob containers, S3 buckets and the in-memory bucket share the same shape:
// a flat namespace of '/'-separated keys. Store maps the gateway's folder
// semantics (root override, flat and recursive listing) onto any Bucket.
package object

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/marmos91/storfiler/pkg/store"
	"github.com/marmos91/storfiler/pkg/storepath"
)

// Bucket is the minimal key/value surface a backend must provide.
//
// Keys never start with a separator. Implementations translate their native
// "no such key" condition into store.ErrNotFound.
type Bucket interface {
	// ListKeys returns the keys starting with prefix in native order.
	// When delimited is true, keys containing a separator after the prefix
	// are omitted.
	ListKeys(ctx context.Context, prefix string, delimited bool) ([]string, error)

	// Get opens the object stored at key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Put stores size bytes from r at key.
	Put(ctx context.Context, key string, r io.Reader, size int64) error

	// Remove deletes the object at key.
	Remove(ctx context.Context, key string) error

	// Head reports whether an object exists at key.
	Head(ctx context.Context, key string) (bool, error)
}

// Store adapts a Bucket to store.Store.
type Store struct {
	kind   string
	bucket Bucket
	root   string // normalized, no leading separator; "" for the bucket root
}

// New wraps bucket as a store of the given kind rooted at root.
func New(kind string, bucket Bucket, root string) *Store {
	r := storepath.Normalize(root, false)
	if r == storepath.Root {
		r = ""
	}
	return &Store{kind: kind, bucket: bucket, root: r}
}

// Kind returns the backend family this store was created with.
func (s *Store) Kind() string {
	return s.kind
}

func (s *Store) key(id string) (string, error) {
	if storepath.IsRoot(id) {
		return "", fmt.Errorf("empty object id: %w", store.ErrInvalidInput)
	}
	return storepath.Combine(s.root, id), nil
}

// folderPrefix returns the key prefix that enumerates the folder at prefix.
func (s *Store) folderPrefix(prefix string) string {
	folder := storepath.Combine(s.root, prefix)
	if folder == storepath.Root {
		return ""
	}
	return folder + string(storepath.Separator)
}

// List enumerates the objects under opts.Prefix.
func (s *Store) List(ctx context.Context, opts store.ListOptions) ([]store.Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := s.folderPrefix(opts.Prefix)
	keys, err := s.bucket.ListKeys(ctx, prefix, !opts.Recursive)
	if err != nil {
		return nil, fmt.Errorf("failed to list %q: %w", prefix, err)
	}

	blobs := make([]store.Blob, 0, len(keys))
	for _, key := range keys {
		rel := strings.TrimPrefix(key, prefix)
		if rel == "" || strings.HasSuffix(rel, string(storepath.Separator)) {
			// folder placeholder objects
			continue
		}
		if !opts.Recursive && strings.ContainsRune(rel, storepath.Separator) {
			continue
		}
		blobs = append(blobs, store.NewBlob(s.relative(key)))
	}
	return blobs, nil
}

// relative strips the store root from a bucket key.
func (s *Store) relative(key string) string {
	if s.root == "" {
		return key
	}
	return strings.TrimPrefix(key, s.root+string(storepath.Separator))
}

// OpenRead opens the object identified by id.
func (s *Store) OpenRead(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, err := s.key(id)
	if err != nil {
		return nil, err
	}

	r, err := s.bucket.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return r, nil
}

// Write uploads r at id.
func (s *Store) Write(ctx context.Context, id string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	size, err := store.SourceLength(r)
	if err != nil {
		return err
	}

	key, err := s.key(id)
	if err != nil {
		return err
	}

	if err := s.bucket.Put(ctx, key, r, size); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes the object identified by id.
//
// Several backends treat deleting a missing key as success, so existence is
// checked first to report store.ErrNotFound uniformly.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key, err := s.key(id)
	if err != nil {
		return err
	}

	ok, err := s.bucket.Head(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", key, err)
	}
	if !ok {
		return fmt.Errorf("object %s: %w", key, store.ErrNotFound)
	}

	if err := s.bucket.Remove(ctx, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Exists reports whether the object identified by id exists.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	key, err := s.key(id)
	if err != nil {
		return false, err
	}

	ok, err := s.bucket.Head(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	return ok, nil
}

var _ store.Store = (*Store)(nil)
