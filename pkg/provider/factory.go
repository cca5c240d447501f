// Package provider turns provider descriptors into stores.
//
// Directory and memory stores are cheap wrappers created per call. Azure and
// S3 clients are expensive (connection pools, credential resolution) and are
// created once per distinct configuration and shared by every store opened
// on them.
package provider

import (
	"context"
	"fmt"
	"sync"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	sdkazblob "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/marmos91/storfiler/internal/logger"
	"github.com/marmos91/storfiler/pkg/gateway"
	"github.com/marmos91/storfiler/pkg/store"
	"github.com/marmos91/storfiler/pkg/store/azblob"
	"github.com/marmos91/storfiler/pkg/store/fs"
	"github.com/marmos91/storfiler/pkg/store/memory"
	"github.com/marmos91/storfiler/pkg/store/s3"
)

// Factory implements gateway.StoreFactory.
//
// Thread Safety:
// Client pools and memory buckets are guarded by a mutex; a Factory is safe
// for concurrent use and is meant to outlive catalog reloads.
type Factory struct {
	mu          sync.Mutex
	blobClients map[azblob.ClientConfig]*sdkazblob.Client
	s3Clients   map[s3.ClientConfig]*awss3.Client
	buckets     map[string]*memory.Bucket

	// constructors, replaceable in tests
	newBlobClient func(azblob.ClientConfig) (*sdkazblob.Client, error)
	newS3Client   func(context.Context, s3.ClientConfig) (*awss3.Client, error)
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{
		blobClients:   make(map[azblob.ClientConfig]*sdkazblob.Client),
		s3Clients:     make(map[s3.ClientConfig]*awss3.Client),
		buckets:       make(map[string]*memory.Bucket),
		newBlobClient: azblob.NewClient,
		newS3Client:   s3.NewClient,
	}
}

// Open returns a store for p rooted at root.
//
// Parameters:
//   - ctx: Context for cancellation (also used while resolving AWS configuration)
//   - p: Provider descriptor
//   - root: Folder relative to the provider root; "" for the provider root
//
// Returns:
//   - store.Store: Store bound to the provider and root
//   - error: Returns error if the descriptor is invalid or a client cannot be built
func (f *Factory) Open(ctx context.Context, p gateway.Provider, root string) (store.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch p := p.(type) {
	case gateway.DirectoryProvider:
		return fs.New(ctx, fs.Config{Path: p.Path, Root: root})

	case gateway.MemoryProvider:
		return f.memoryBucket(p.Name).Store(root), nil

	case gateway.CloudBlobProvider:
		client, err := f.blobClient(azblob.ClientConfig{Account: p.Account, Key: p.Key, Endpoint: p.Endpoint})
		if err != nil {
			return nil, err
		}
		bucket, err := azblob.NewBucket(client, p.Container)
		if err != nil {
			return nil, err
		}
		return bucket.Store(root), nil

	case gateway.S3Provider:
		client, err := f.s3Client(ctx, s3.ClientConfig{
			Region:          p.Region,
			Endpoint:        p.Endpoint,
			AccessKeyID:     p.AccessKeyID,
			SecretAccessKey: p.SecretAccessKey,
			ForcePathStyle:  p.ForcePathStyle,
		})
		if err != nil {
			return nil, err
		}
		bucket, err := s3.NewBucket(client, p.Bucket, p.KeyPrefix)
		if err != nil {
			return nil, err
		}
		return bucket.Store(root), nil

	case nil:
		return nil, fmt.Errorf("endpoint has no provider")

	default:
		return nil, fmt.Errorf("unsupported provider kind %q", p.Kind())
	}
}

func (f *Factory) memoryBucket(name string) *memory.Bucket {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.buckets[name]
	if !ok {
		b = memory.NewBucket(name)
		f.buckets[name] = b
	}
	return b
}

func (f *Factory) blobClient(cfg azblob.ClientConfig) (*sdkazblob.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.blobClients[cfg]; ok {
		return c, nil
	}

	c, err := f.newBlobClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client for account %s: %w", cfg.Account, err)
	}
	logger.Debug("Created blob client for %s", cfg.ServiceURL())
	f.blobClients[cfg] = c
	return c, nil
}

// s3Client holds the lock while building a client so concurrent first
// requests for the same configuration share one client.
func (f *Factory) s3Client(ctx context.Context, cfg s3.ClientConfig) (*awss3.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.s3Clients[cfg]; ok {
		return c, nil
	}

	c, err := f.newS3Client(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client for region %s: %w", cfg.Region, err)
	}
	logger.Debug("Created S3 client (region=%s endpoint=%s)", cfg.Region, cfg.Endpoint)
	f.s3Clients[cfg] = c
	return c, nil
}

// Stats reports how many clients and buckets are pooled.
type Stats struct {
	BlobClients   int
	S3Clients     int
	MemoryBuckets int
}

// Stats returns the current pool sizes.
func (f *Factory) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Stats{
		BlobClients:   len(f.blobClients),
		S3Clients:     len(f.s3Clients),
		MemoryBuckets: len(f.buckets),
	}
}

var _ gateway.StoreFactory = (*Factory)(nil)
