// Package azblob implements an object.Bucket on an Azure Blob Storage
// container.
package azblob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/marmos91/storfiler/pkg/store"
	"github.com/marmos91/storfiler/pkg/store/object"
)

// Kind is the backend family reported by stores built on a Bucket.
const Kind = "cloud_blob"

// ClientConfig describes how to reach a storage account.
type ClientConfig struct {
	// Account is the storage account name (required)
	Account string

	// Key is the shared account key (required)
	Key string

	// Endpoint overrides the service URL, e.g. an Azurite emulator at
	// http://127.0.0.1:10000/devstoreaccount1. Defaults to
	// https://<account>.blob.core.windows.net/
	Endpoint string

	// MaxRetries bounds the SDK transport retry policy (0 keeps the SDK default)
	MaxRetries int32
}

// ServiceURL returns the blob service URL selected by cfg.
func (cfg ClientConfig) ServiceURL() string {
	if cfg.Endpoint != "" {
		return cfg.Endpoint
	}
	return fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.Account)
}

// NewClient builds a shared-key authenticated blob service client.
func NewClient(cfg ClientConfig) (*azblob.Client, error) {
	if cfg.Account == "" {
		return nil, fmt.Errorf("storage account name is required")
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("storage account key is required")
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.Account, cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("invalid shared key credential: %w", err)
	}

	opts := &azblob.ClientOptions{}
	if cfg.MaxRetries > 0 {
		opts.ClientOptions = azcore.ClientOptions{
			Retry: policy.RetryOptions{MaxRetries: cfg.MaxRetries},
		}
	}

	client, err := azblob.NewClientWithSharedKeyCredential(cfg.ServiceURL(), cred, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}
	return client, nil
}

// containerAPI is the per-container surface Bucket needs. sdkContainer
// implements it over the Azure SDK.
type containerAPI interface {
	listBlobNames(ctx context.Context, prefix string, delimited bool) ([]string, error)
	download(ctx context.Context, name string) (io.ReadCloser, error)
	upload(ctx context.Context, name string, r io.Reader) error
	deleteBlob(ctx context.Context, name string) error
	getProperties(ctx context.Context, name string) error
}

// Bucket implements object.Bucket over one blob container.
type Bucket struct {
	api       containerAPI
	container string
}

// NewBucket binds client to the named container. The container must exist.
func NewBucket(client *azblob.Client, containerName string) (*Bucket, error) {
	if client == nil {
		return nil, fmt.Errorf("blob client is required")
	}
	if containerName == "" {
		return nil, fmt.Errorf("container name is required")
	}
	return &Bucket{
		api:       &sdkContainer{client: client, container: containerName},
		container: containerName,
	}, nil
}

// Store returns a store.Store over the container rooted at root.
func (b *Bucket) Store(root string) *object.Store {
	return object.New(Kind, b, root)
}

// Container returns the container name.
func (b *Bucket) Container() string {
	return b.container
}

// ListKeys enumerates blob names starting with prefix.
func (b *Bucket) ListKeys(ctx context.Context, prefix string, delimited bool) ([]string, error) {
	names, err := b.api.listBlobNames(ctx, prefix, delimited)
	if err != nil {
		return nil, fmt.Errorf("failed to list container %s: %w", b.container, err)
	}
	return names, nil
}

// Get downloads the blob at key.
func (b *Bucket) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	body, err := b.api.download(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("blob %s: %w", key, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}
	return body, nil
}

// Put uploads r as a block blob. UploadStream chunks the stream itself and
// does not need the size.
func (b *Bucket) Put(ctx context.Context, key string, r io.Reader, _ int64) error {
	if err := b.api.upload(ctx, key, r); err != nil {
		return fmt.Errorf("failed to upload blob: %w", err)
	}
	return nil
}

// Remove deletes the blob at key.
func (b *Bucket) Remove(ctx context.Context, key string) error {
	if err := b.api.deleteBlob(ctx, key); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("blob %s: %w", key, store.ErrNotFound)
		}
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// Head reports whether a blob exists at key.
func (b *Bucket) Head(ctx context.Context, key string) (bool, error) {
	if err := b.api.getProperties(ctx, key); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get blob properties: %w", err)
	}
	return true, nil
}

func isNotFound(err error) bool {
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ResourceNotFound) {
		return true
	}
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}

// ============================================================================
// Azure SDK binding
// ============================================================================

type sdkContainer struct {
	client    *azblob.Client
	container string
}

func (c *sdkContainer) listBlobNames(ctx context.Context, prefix string, delimited bool) ([]string, error) {
	var names []string

	if delimited {
		pager := c.client.ServiceClient().NewContainerClient(c.container).
			NewListBlobsHierarchyPager("/", &container.ListBlobsHierarchyOptions{Prefix: &prefix})
		for pager.More() {
			resp, err := pager.NextPage(ctx)
			if err != nil {
				return nil, err
			}
			for _, item := range resp.Segment.BlobItems {
				if item.Name != nil {
					names = append(names, *item.Name)
				}
			}
		}
		return names, nil
	}

	pager := c.client.NewListBlobsFlatPager(c.container, &azblob.ListBlobsFlatOptions{Prefix: &prefix})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range resp.Segment.BlobItems {
			if item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}
	return names, nil
}

func (c *sdkContainer) download(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := c.client.DownloadStream(ctx, c.container, name, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *sdkContainer) upload(ctx context.Context, name string, r io.Reader) error {
	_, err := c.client.UploadStream(ctx, c.container, name, r, nil)
	return err
}

func (c *sdkContainer) deleteBlob(ctx context.Context, name string) error {
	_, err := c.client.DeleteBlob(ctx, c.container, name, nil)
	return err
}

func (c *sdkContainer) getProperties(ctx context.Context, name string) error {
	_, err := c.client.ServiceClient().NewContainerClient(c.container).NewBlobClient(name).GetProperties(ctx, nil)
	return err
}

var _ object.Bucket = (*Bucket)(nil)
