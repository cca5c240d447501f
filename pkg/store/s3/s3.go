// Package s3 implements an object.Bucket on Amazon S3 or any S3-compatible
// service (MinIO, Cubbit DS3, localstack).
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/marmos91/storfiler/pkg/store"
	"github.com/marmos91/storfiler/pkg/store/object"
)

// Kind is the backend family reported by stores built on a Bucket.
const Kind = "s3"

// API is the subset of *s3.Client used by Bucket.
type API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// ClientConfig describes how to reach an S3 endpoint.
type ClientConfig struct {
	// Region is the AWS region (required)
	Region string

	// Endpoint overrides the service URL for S3-compatible storage
	Endpoint string

	// AccessKeyID and SecretAccessKey select static credentials. When empty
	// the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string

	// ForcePathStyle addresses buckets as https://endpoint/bucket
	ForcePathStyle bool
}

// NewClient builds an S3 client from cfg.
//
// Parameters:
//   - ctx: Context used while resolving the shared AWS configuration
//   - cfg: Endpoint, region and credentials
//
// Returns:
//   - *s3.Client: Client ready to be shared by any number of buckets
//   - error: Returns error if the AWS configuration cannot be loaded
func NewClient(ctx context.Context, cfg ClientConfig) (*s3.Client, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("S3 region is required")
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	}), nil
}

// Bucket implements object.Bucket over one S3 bucket.
//
// An optional key prefix is prepended to every key, so several gateways can
// share a bucket without seeing each other's objects.
type Bucket struct {
	client    API
	bucket    string
	keyPrefix string
}

// NewBucket binds client to bucket. keyPrefix may be empty.
func NewBucket(client API, bucket, keyPrefix string) (*Bucket, error) {
	if client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	keyPrefix = strings.Trim(keyPrefix, "/")
	if keyPrefix != "" {
		keyPrefix += "/"
	}

	return &Bucket{client: client, bucket: bucket, keyPrefix: keyPrefix}, nil
}

// Store returns a store.Store over the bucket rooted at root.
func (b *Bucket) Store(root string) *object.Store {
	return object.New(Kind, b, root)
}

func (b *Bucket) objectKey(key string) string {
	return b.keyPrefix + key
}

// ListKeys pages through ListObjectsV2.
func (b *Bucket) ListKeys(ctx context.Context, prefix string, delimited bool) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(b.objectKey(prefix)),
	}
	if delimited {
		input.Delimiter = aws.String("/")
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(b.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(obj.Key), b.keyPrefix))
		}
	}
	return keys, nil
}

// Get downloads the object at key.
func (b *Bucket) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("key %s: %w", key, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return out.Body, nil
}

// Put uploads size bytes from r with a single PutObject call.
func (b *Bucket) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(b.objectKey(key)),
		Body:          r,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}

// Remove deletes the object at key.
func (b *Bucket) Remove(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("key %s: %w", key, store.ErrNotFound)
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Head reports whether an object exists at key.
func (b *Bucket) Head(ctx context.Context, key string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to head object: %w", err)
	}
	return true, nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}

var _ object.Bucket = (*Bucket)(nil)
