//go:build integration

package s3

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/storfiler/pkg/store"
	storetesting "github.com/marmos91/storfiler/pkg/store/testing"
	"github.com/stretchr/testify/require"
)

// setupLocalstack creates a test bucket on Localstack (or another
// S3-compatible endpoint) and removes it when the test ends.
func setupLocalstack(t *testing.T, bucketName string) *awss3.Client {
	t.Helper()
	ctx := context.Background()

	endpoint := os.Getenv("LOCALSTACK_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:4566"
	}

	// Path-style addressing is required for Localstack
	client, err := NewClient(ctx, ClientConfig{
		Region:          "us-east-1",
		Endpoint:        endpoint,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		ForcePathStyle:  true,
	})
	require.NoError(t, err)

	_, err = client.CreateBucket(ctx, &awss3.CreateBucketInput{Bucket: aws.String(bucketName)})
	require.NoError(t, err, "is Localstack running on %s?", endpoint)

	t.Cleanup(func() {
		paginator := awss3.NewListObjectsV2Paginator(client, &awss3.ListObjectsV2Input{Bucket: aws.String(bucketName)})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				break
			}
			for _, obj := range page.Contents {
				_, _ = client.DeleteObject(ctx, &awss3.DeleteObjectInput{Bucket: aws.String(bucketName), Key: obj.Key})
			}
		}
		_, _ = client.DeleteBucket(ctx, &awss3.DeleteBucketInput{Bucket: aws.String(bucketName)})
	})

	return client
}

// TestS3Store_Integration runs the store suite against a real S3 service.
//
// Run with:
//
//	docker run --rm -p 4566:4566 localstack/localstack
//	go test -tags=integration ./pkg/store/s3/...
func TestS3Store_Integration(t *testing.T) {
	bucketName := "storfiler-test-bucket"
	client := setupLocalstack(t, bucketName)

	// Each test gets its own key prefix for isolation
	testCounter := 0
	suite := &storetesting.StoreTestSuite{
		NewStore: func(t *testing.T) store.Store {
			testCounter++
			b, err := NewBucket(client, bucketName, fmt.Sprintf("test-%d", testCounter))
			require.NoError(t, err)
			return b.Store("")
		},
	}

	suite.Run(t)
}
