package store

import (
	"context"
	"io"

	"github.com/marmos91/storfiler/pkg/storepath"
)

// ============================================================================
// Store Interface
// ============================================================================

// Store is the capability set the gateway needs from a storage backend.
//
// A Store is bound to a root (a backend folder such as a directory, a blob
// container sub-folder or an S3 key prefix). Every id passed to a Store is a
// '/'-separated path relative to that root, and every Blob returned by List
// carries an id relative to the same root, so a listed id can always be fed
// back into OpenRead, Delete or Exists on an equivalent Store.
//
// Context Cancellation:
// All operations check the context before performing backend I/O.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
type Store interface {
	// List enumerates the files (never folders) below opts.Prefix.
	//
	// Order is the backend's native enumeration order. A prefix that does
	// not exist lists as empty rather than failing.
	List(ctx context.Context, opts ListOptions) ([]Blob, error)

	// OpenRead returns a reader for the object identified by id.
	//
	// The caller must close the reader. Returns ErrNotFound when the object
	// does not exist.
	OpenRead(ctx context.Context, id string) (io.ReadCloser, error)

	// Write creates or overwrites the object identified by id.
	//
	// The reader must expose a determinable length (see SourceLength);
	// otherwise ErrInvalidInput is returned before any backend I/O.
	Write(ctx context.Context, id string, r io.Reader) error

	// Delete removes the object identified by id.
	// Returns ErrNotFound when the object does not exist.
	Delete(ctx context.Context, id string) error

	// Exists reports whether the object identified by id exists.
	Exists(ctx context.Context, id string) (bool, error)

	// Kind names the backend family ("directory", "cloud_blob", "s3", "memory").
	Kind() string
}

// Globber is implemented by stores that can match file names natively.
//
// Glob returns every file below prefix (recursively) whose name matches
// pattern. Pattern syntax is the one accepted by MatchName.
type Globber interface {
	Glob(ctx context.Context, prefix, pattern string) ([]Blob, error)
}

// ListOptions controls a List call.
type ListOptions struct {
	// Prefix is the folder to enumerate, relative to the store root.
	// Empty or "/" lists the root.
	Prefix string

	// Recursive includes files in nested folders.
	Recursive bool
}

// Blob describes one stored file as seen by a Store.
type Blob struct {
	// ID is the backend key relative to the store root, without a leading separator.
	ID string

	// FullPath is the '/'-prefixed normalized key.
	FullPath string

	// FolderPath is the '/'-prefixed folder holding the file.
	FolderPath string
}

// NewBlob builds a Blob from a key relative to the store root.
func NewBlob(key string) Blob {
	return Blob{
		ID:         storepath.Normalize(key, false),
		FullPath:   storepath.Normalize(key, true),
		FolderPath: storepath.Folder(key),
	}
}
