package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/marmos91/storfiler/internal/logger"
	"github.com/marmos91/storfiler/pkg/metrics"
	"github.com/marmos91/storfiler/pkg/store"
	"github.com/marmos91/storfiler/pkg/storepath"
	"golang.org/x/sync/errgroup"
)

// FileNamePlaceholder is replaced by the search term in a method pattern.
const FileNamePlaceholder = "{fileName}"

// StoreFactory opens a store for a provider, rooted at root (a folder
// relative to the provider's own root; "" for the provider root).
//
// The dispatcher opens one store per endpoint per operation.
type StoreFactory interface {
	Open(ctx context.Context, p Provider, root string) (store.Store, error)
}

// StoreFactoryFunc adapts a function to StoreFactory.
type StoreFactoryFunc func(ctx context.Context, p Provider, root string) (store.Store, error)

// Open calls f.
func (f StoreFactoryFunc) Open(ctx context.Context, p Provider, root string) (store.Store, error) {
	return f(ctx, p, root)
}

// Dispatcher executes gateway actions against resolved endpoints.
//
// Multi-endpoint actions (List, Search, Add) fan out one goroutine per
// endpoint (or per file and endpoint pair), joined with errgroup. A failing
// endpoint is logged and excluded; it never aborts its siblings.
//
// Thread Safety:
// A Dispatcher holds no per-request state and is safe for concurrent use.
type Dispatcher struct {
	factory   StoreFactory
	metrics   metrics.GatewayMetrics
	maxFanout int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMaxFanout bounds concurrent per-endpoint calls within one operation.
// Zero or negative means unbounded.
func WithMaxFanout(n int) Option {
	return func(d *Dispatcher) {
		d.maxFanout = n
	}
}

// NewDispatcher creates a dispatcher opening stores through factory.
// A nil gm disables metrics.
func NewDispatcher(factory StoreFactory, gm metrics.GatewayMetrics, opts ...Option) *Dispatcher {
	if gm == nil {
		gm = metrics.NewNoopGatewayMetrics()
	}

	d := &Dispatcher{factory: factory, metrics: gm}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) group() *errgroup.Group {
	g := &errgroup.Group{}
	if d.maxFanout > 0 {
		g.SetLimit(d.maxFanout)
	}
	return g
}

func (d *Dispatcher) finish(action Action, r *Resource, start time.Time, outcome string) {
	d.metrics.RecordOperation(string(action), r.Name, time.Since(start), outcome)
}

// targetPath returns the logical path of a request argument on e.
func targetPath(m *Method, e *Endpoint, p string) string {
	if m.fullPath(e) {
		return storepath.Normalize(p, false)
	}
	return storepath.Combine(e.Path, p)
}

// listPrefix returns the folder a List or Search enumerates on e.
func listPrefix(m *Method, e *Endpoint) string {
	if m.fullPath(e) {
		return storepath.Root
	}
	return storepath.Normalize(e.Path, true)
}

// ============================================================================
// Read fan-out
// ============================================================================

// List merges the files of every read endpoint.
//
// Results keep endpoint order as the outer order and each backend's native
// order within an endpoint. The operation fails only when every endpoint
// failed.
func (d *Dispatcher) List(ctx context.Context, r *Resource, m *Method) ([]FileEntry, error) {
	start := time.Now()

	endpoints, err := ResolveRead(m, r)
	if err != nil {
		d.finish(ActionList, r, start, metrics.OutcomeError)
		return nil, err
	}

	entries, outcome, err := d.fanOutRead(ctx, ActionList, r, m, endpoints,
		func(ctx context.Context, s store.Store, e *Endpoint) ([]store.Blob, error) {
			return s.List(ctx, store.ListOptions{Prefix: listPrefix(m, e), Recursive: m.Recursive})
		})
	d.finish(ActionList, r, start, outcome)
	return entries, err
}

// Search merges the files of every read endpoint whose name matches the
// method pattern (with {fileName} replaced by term) or term itself.
//
// Directory endpoints flagged IsRegex use native globbing; every other
// endpoint is listed recursively and filtered here with the same syntax.
func (d *Dispatcher) Search(ctx context.Context, r *Resource, m *Method, term string) ([]FileEntry, error) {
	start := time.Now()

	endpoints, err := ResolveRead(m, r)
	if err != nil {
		d.finish(ActionSearch, r, start, metrics.OutcomeError)
		return nil, err
	}

	pattern := SearchPattern(m, term)
	if pattern == "" {
		d.finish(ActionSearch, r, start, metrics.OutcomeError)
		return nil, fmt.Errorf("search term is required: %w", ErrInvalidInput)
	}
	if _, err := store.MatchName(pattern, ""); err != nil {
		d.finish(ActionSearch, r, start, metrics.OutcomeError)
		return nil, err
	}

	entries, outcome, err := d.fanOutRead(ctx, ActionSearch, r, m, endpoints,
		func(ctx context.Context, s store.Store, e *Endpoint) ([]store.Blob, error) {
			prefix := listPrefix(m, e)
			if g, ok := s.(store.Globber); ok && e.IsRegex {
				return g.Glob(ctx, prefix, pattern)
			}
			blobs, err := s.List(ctx, store.ListOptions{Prefix: prefix, Recursive: true})
			if err != nil {
				return nil, err
			}
			return store.Filter(blobs, pattern)
		})
	d.finish(ActionSearch, r, start, outcome)
	return entries, err
}

// SearchPattern expands the method pattern for term.
func SearchPattern(m *Method, term string) string {
	if m.Pattern == "" {
		return term
	}
	return strings.ReplaceAll(m.Pattern, FileNamePlaceholder, term)
}

type readFunc func(ctx context.Context, s store.Store, e *Endpoint) ([]store.Blob, error)

func (d *Dispatcher) fanOutRead(
	ctx context.Context, action Action, r *Resource, m *Method, endpoints []*Endpoint, read readFunc,
) ([]FileEntry, string, error) {
	results := make([][]store.Blob, len(endpoints))
	errs := make([]error, len(endpoints))

	g := d.group()
	for i, e := range endpoints {
		i, e := i, e
		g.Go(func() error {
			s, err := d.factory.Open(ctx, e.Provider, "")
			if err == nil {
				results[i], err = read(ctx, s, e)
			}
			if err != nil {
				errs[i] = &BackendError{Op: strings.ToLower(string(action)), Endpoint: e.String(), Path: e.Path, Err: err}
				d.metrics.RecordEndpointCall(string(action), kindOf(e), metrics.OutcomeError)
				if ctx.Err() == nil {
					logger.Error("%s %s/%s: endpoint %s failed: %v", action, r.Name, m, e, err)
				}
				return nil
			}
			d.metrics.RecordEndpointCall(string(action), kindOf(e), metrics.OutcomeSuccess)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, metrics.OutcomeError, err
	}

	failed := 0
	total := 0
	for i := range endpoints {
		if errs[i] != nil {
			failed++
			continue
		}
		total += len(results[i])
	}
	if failed == len(endpoints) {
		return nil, metrics.OutcomeError, errors.Join(errs...)
	}

	merged := make([]store.Blob, 0, total)
	for i := range endpoints {
		merged = append(merged, results[i]...)
	}

	outcome := metrics.OutcomeSuccess
	if failed > 0 {
		outcome = metrics.OutcomePartial
	}
	return toFileEntries(merged), outcome, nil
}

// ============================================================================
// Single-target operations
// ============================================================================

// Download is an open object ready to be streamed to a client.
type Download struct {
	// Name is the file name (last path segment).
	Name string

	// Path is the logical path that was resolved on the endpoint.
	Path string

	// Body streams the object. The caller must close it.
	Body io.ReadCloser
}

// Download opens p on the resource's single read endpoint.
//
// Unless the endpoint is full-path, p is joined under the endpoint prefix.
// The store is rooted at the containing folder and read by file name. A
// missing object returns ErrNotFound without being logged as a failure.
func (d *Dispatcher) Download(ctx context.Context, r *Resource, m *Method, p string) (*Download, error) {
	start := time.Now()

	e, err := FindRead(m, r)
	if err != nil {
		d.finish(ActionDownload, r, start, metrics.OutcomeError)
		return nil, err
	}

	target := targetPath(m, e, p)
	name := storepath.Name(target)
	if name == "" || storepath.IsRoot(p) {
		d.finish(ActionDownload, r, start, metrics.OutcomeError)
		return nil, fmt.Errorf("file path is required: %w", ErrInvalidInput)
	}

	s, err := d.factory.Open(ctx, e.Provider, storepath.Folder(target))
	if err != nil {
		d.finish(ActionDownload, r, start, metrics.OutcomeError)
		return nil, &BackendError{Op: "download", Endpoint: e.String(), Path: target, Err: err}
	}

	body, err := s.OpenRead(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger.Debug("Download %s/%s: %s not found on %s", r.Name, m, target, e)
			d.metrics.RecordEndpointCall(string(ActionDownload), s.Kind(), metrics.OutcomeNotFound)
			d.finish(ActionDownload, r, start, metrics.OutcomeNotFound)
			return nil, fmt.Errorf("%s: %w", target, ErrNotFound)
		}
		logger.Error("Download %s/%s: %s on %s failed: %v", r.Name, m, target, e, err)
		d.metrics.RecordEndpointCall(string(ActionDownload), s.Kind(), metrics.OutcomeError)
		d.finish(ActionDownload, r, start, metrics.OutcomeError)
		return nil, &BackendError{Op: "download", Endpoint: e.String(), Path: target, Err: err}
	}

	d.metrics.RecordEndpointCall(string(ActionDownload), s.Kind(), metrics.OutcomeSuccess)
	d.finish(ActionDownload, r, start, metrics.OutcomeSuccess)

	return &Download{
		Name: name,
		Path: storepath.Normalize(target, true),
		Body: &countingReadCloser{ReadCloser: body, record: func(n int64) { d.metrics.RecordBytes("read", n) }},
	}, nil
}

// Remove deletes p from the resource's single write endpoint.
//
// Existence is checked first: a missing object returns found=false and no
// delete call reaches the backend.
func (d *Dispatcher) Remove(ctx context.Context, r *Resource, m *Method, p string) (bool, error) {
	start := time.Now()

	e, err := FindWrite(m, r)
	if err != nil {
		d.finish(ActionRemove, r, start, metrics.OutcomeError)
		return false, err
	}

	target := targetPath(m, e, p)
	name := storepath.Name(target)
	if name == "" || storepath.IsRoot(p) {
		d.finish(ActionRemove, r, start, metrics.OutcomeError)
		return false, fmt.Errorf("file path is required: %w", ErrInvalidInput)
	}

	s, err := d.factory.Open(ctx, e.Provider, storepath.Folder(target))
	if err != nil {
		d.finish(ActionRemove, r, start, metrics.OutcomeError)
		return false, &BackendError{Op: "remove", Endpoint: e.String(), Path: target, Err: err}
	}

	fail := func(err error) (bool, error) {
		logger.Error("Remove %s/%s: %s on %s failed: %v", r.Name, m, target, e, err)
		d.metrics.RecordEndpointCall(string(ActionRemove), s.Kind(), metrics.OutcomeError)
		d.finish(ActionRemove, r, start, metrics.OutcomeError)
		return false, &BackendError{Op: "remove", Endpoint: e.String(), Path: target, Err: err}
	}
	notFound := func() (bool, error) {
		d.metrics.RecordEndpointCall(string(ActionRemove), s.Kind(), metrics.OutcomeNotFound)
		d.finish(ActionRemove, r, start, metrics.OutcomeNotFound)
		return false, nil
	}

	exists, err := s.Exists(ctx, name)
	if err != nil {
		return fail(err)
	}
	if !exists {
		return notFound()
	}

	if err := s.Delete(ctx, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound()
		}
		return fail(err)
	}

	d.metrics.RecordEndpointCall(string(ActionRemove), s.Kind(), metrics.OutcomeSuccess)
	d.finish(ActionRemove, r, start, metrics.OutcomeSuccess)
	return true, nil
}

// countingReadCloser reports the bytes read once closed.
type countingReadCloser struct {
	io.ReadCloser
	n      int64
	record func(int64)
}

func (c *countingReadCloser) Read(p []byte) (int, error) {
	n, err := c.ReadCloser.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReadCloser) Close() error {
	if c.record != nil {
		c.record(c.n)
		c.record = nil
	}
	return c.ReadCloser.Close()
}
