package gateway

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/marmos91/storfiler/pkg/store"
	"github.com/marmos91/storfiler/pkg/store/fs"
	"github.com/marmos91/storfiler/pkg/store/memory"
)

var errBackendDown = errors.New("backend down")

// testFactory opens real directory and memory stores. Memory buckets named
// "broken" fail every call; all memory stores count Delete calls.
type testFactory struct {
	mu      sync.Mutex
	buckets map[string]*memory.Bucket
	deletes atomic.Int32
	opens   atomic.Int32
}

func newTestFactory() *testFactory {
	return &testFactory{buckets: make(map[string]*memory.Bucket)}
}

func (f *testFactory) bucket(name string) *memory.Bucket {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.buckets[name]
	if !ok {
		b = memory.NewBucket(name)
		f.buckets[name] = b
	}
	return b
}

func (f *testFactory) Open(ctx context.Context, p Provider, root string) (store.Store, error) {
	f.opens.Add(1)
	switch p := p.(type) {
	case DirectoryProvider:
		return fs.New(ctx, fs.Config{Path: p.Path, Root: root})
	case MemoryProvider:
		if p.Name == "broken" {
			return brokenStore{}, nil
		}
		return &spyStore{Store: f.bucket(p.Name).Store(root), deletes: &f.deletes}, nil
	default:
		return nil, errors.New("unsupported provider in test")
	}
}

type spyStore struct {
	store.Store
	deletes *atomic.Int32
}

func (s *spyStore) Delete(ctx context.Context, id string) error {
	s.deletes.Add(1)
	return s.Store.Delete(ctx, id)
}

type brokenStore struct{}

func (brokenStore) List(context.Context, store.ListOptions) ([]store.Blob, error) {
	return nil, errBackendDown
}
func (brokenStore) OpenRead(context.Context, string) (io.ReadCloser, error) {
	return nil, errBackendDown
}
func (brokenStore) Write(context.Context, string, io.Reader) error { return errBackendDown }
func (brokenStore) Delete(context.Context, string) error           { return errBackendDown }
func (brokenStore) Exists(context.Context, string) (bool, error)   { return false, errBackendDown }
func (brokenStore) Kind() string                                   { return "memory" }

func boolPtr(b bool) *bool { return &b }
