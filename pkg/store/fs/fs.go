// Package fs implements store.Store over a local directory tree.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/marmos91/storfiler/pkg/store"
	"github.com/marmos91/storfiler/pkg/storepath"
)

// Kind is the backend family reported by Store.Kind.
const Kind = "directory"

// Store implements store.Store and store.Globber on the local filesystem.
//
// Ids are '/'-separated paths resolved under the store root. Resolution is
// confined: ".." segments are cleaned against the root and can never escape
// it.
//
// Thread Safety:
// Filesystem operations are safe at the OS level. Writes go through a
// temporary file and a rename, so concurrent readers never observe a
// partially written file.
type Store struct {
	root string
}

// Config contains configuration for a directory store.
type Config struct {
	// Path is the directory backing the store.
	Path string

	// Root is an optional sub-folder of Path used as the store root.
	Root string
}

// New creates a directory-backed store.
//
// The directory is not created here: listing a missing tree yields no files
// and the first Write creates whatever folders it needs.
//
// Parameters:
//   - ctx: Context for cancellation
//   - cfg: Store configuration
//
// Returns:
//   - *Store: Initialized store
//   - error: Returns error if Path is empty or the context is cancelled
func New(ctx context.Context, cfg Config) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Path == "" {
		return nil, fmt.Errorf("directory path is required")
	}

	base, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory %q: %w", cfg.Path, err)
	}

	return &Store{root: filepath.Join(base, confine(cfg.Root))}, nil
}

// Kind returns "directory".
func (s *Store) Kind() string {
	return Kind
}

// Root returns the absolute directory the store resolves ids under.
func (s *Store) Root() string {
	return s.root
}

// confine cleans a logical path against "/" so it cannot climb above the
// root, and converts it to the host separator. The root itself maps to "".
func confine(id string) string {
	cleaned := storepath.Normalize(path.Clean("/"+storepath.Normalize(id, false)), false)
	if cleaned == storepath.Root {
		return ""
	}
	return filepath.FromSlash(cleaned)
}

// resolveFile maps an id to a host path, refusing ids that designate the root.
func (s *Store) resolveFile(id string) (string, error) {
	rel := confine(id)
	if rel == "" {
		return "", fmt.Errorf("empty object id: %w", store.ErrInvalidInput)
	}
	return filepath.Join(s.root, rel), nil
}

// keyOf converts a host path under the root back into a store key.
func (s *Store) keyOf(p string) (string, error) {
	rel, err := filepath.Rel(s.root, p)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// ============================================================================
// Reading
// ============================================================================

// List enumerates regular files below opts.Prefix.
//
// Recursive listings walk the tree in lexical order (filepath.WalkDir);
// flat listings read a single directory.
func (s *Store) List(ctx context.Context, opts store.ListOptions) ([]store.Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.root, confine(opts.Prefix))

	info, err := os.Stat(dir)
	if errors.Is(err, iofs.ErrNotExist) {
		return []store.Blob{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return []store.Blob{}, nil
	}

	if !opts.Recursive {
		return s.listFlat(ctx, dir)
	}
	return s.walk(ctx, dir, func(string) bool { return true })
}

func (s *Store) listFlat(ctx context.Context, dir string) ([]store.Blob, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	blobs := make([]store.Blob, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.Type().IsRegular() || inFlight(entry.Name()) {
			continue
		}

		key, err := s.keyOf(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		blobs = append(blobs, store.NewBlob(key))
	}
	return blobs, nil
}

// tempPrefix marks uploads that have not been renamed into place yet.
const tempPrefix = ".storfiler-"

func inFlight(name string) bool {
	return strings.HasPrefix(name, tempPrefix)
}

func (s *Store) walk(ctx context.Context, dir string, keep func(name string) bool) ([]store.Blob, error) {
	blobs := []store.Blob{}

	err := filepath.WalkDir(dir, func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() || inFlight(d.Name()) || !keep(d.Name()) {
			return nil
		}

		key, err := s.keyOf(p)
		if err != nil {
			return err
		}
		blobs = append(blobs, store.NewBlob(key))
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	return blobs, nil
}

// Glob returns every file below prefix whose name matches pattern.
func (s *Store) Glob(ctx context.Context, prefix, pattern string) ([]store.Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := store.MatchName(pattern, ""); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.root, confine(prefix))
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		if err == nil || errors.Is(err, iofs.ErrNotExist) {
			return []store.Blob{}, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}

	return s.walk(ctx, dir, func(name string) bool {
		ok, _ := store.MatchName(pattern, name)
		return ok
	})
}

// OpenRead opens the file identified by id.
func (s *Store) OpenRead(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := s.resolveFile(id)
	if err != nil {
		return nil, err
	}

	if err := s.requireFile(p, id); err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, fmt.Errorf("object %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open %s: %w", id, err)
	}
	return f, nil
}

// Exists reports whether id designates a regular file.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	p, err := s.resolveFile(id)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(p)
	if errors.Is(err, iofs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", id, err)
	}
	return info.Mode().IsRegular(), nil
}

func (s *Store) requireFile(p, id string) error {
	info, err := os.Stat(p)
	if errors.Is(err, iofs.ErrNotExist) {
		return fmt.Errorf("object %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", id, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("object %s is not a file: %w", id, store.ErrNotFound)
	}
	return nil
}

// ============================================================================
// Writing
// ============================================================================

// Write stores r at id, creating parent folders as needed.
//
// Data is written to a temporary file in the destination folder and renamed
// into place once complete.
func (s *Store) Write(ctx context.Context, id string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := store.SourceLength(r); err != nil {
		return err
	}

	p, err := s.resolveFile(id)
	if err != nil {
		return err
	}

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", id, err)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", id, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := io.Copy(tmp, &contextReader{ctx: ctx, r: r}); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", id, err)
	}

	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("failed to commit %s: %w", id, err)
	}
	return nil
}

// Delete removes the file identified by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := s.resolveFile(id)
	if err != nil {
		return err
	}

	if err := s.requireFile(p, id); err != nil {
		return err
	}

	if err := os.Remove(p); err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return fmt.Errorf("object %s: %w", id, store.ErrNotFound)
		}
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}
	return nil
}

// contextReader stops a copy as soon as ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

var (
	_ store.Store   = (*Store)(nil)
	_ store.Globber = (*Store)(nil)
)
