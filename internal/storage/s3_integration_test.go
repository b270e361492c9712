//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantor-labs/repliq/internal/testutil"
)

func TestS3ClientIntegration(t *testing.T) {
	ctx := context.Background()

	s3Container := testutil.NewRustFSContainer(ctx, t)
	defer s3Container.Terminate(ctx)

	client, err := NewS3Client(ctx, S3ClientConfig{
		Endpoint:        s3Container.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "test-knowledge",
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	t.Run("EnsureBucket creates and is idempotent", func(t *testing.T) {
		require.NoError(t, client.EnsureBucket(ctx))
		require.NoError(t, client.EnsureBucket(ctx))
	})

	t.Run("Upload and Download roundtrip", func(t *testing.T) {
		content := []byte(`{"items":[{"question":"q","answer":"a"}]}`)
		require.NoError(t, client.Upload(ctx, "knowledge.json", content, "application/json"))

		got, err := client.Download(ctx, "knowledge.json")
		require.NoError(t, err)
		assert.Equal(t, content, got)
	})

	t.Run("HeadObject returns metadata", func(t *testing.T) {
		content := []byte("hello")
		require.NoError(t, client.Upload(ctx, "meta-check", content, "text/plain"))

		meta, err := client.HeadObject(ctx, "meta-check")
		require.NoError(t, err)
		assert.Equal(t, int64(len(content)), meta.ContentLength)
		assert.Equal(t, "text/plain", meta.ContentType)
		assert.NotEmpty(t, meta.ETag)
	})

	t.Run("Download of missing key fails", func(t *testing.T) {
		_, err := client.Download(ctx, "does-not-exist")
		assert.Error(t, err)
	})

	t.Run("HeadObject of missing key fails", func(t *testing.T) {
		_, err := client.HeadObject(ctx, "does-not-exist")
		assert.Error(t, err)
	})
}
