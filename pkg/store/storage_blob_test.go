package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"
)

func newTestBlobStorage(t *testing.T, prefix string) *BlobStorage {
	t.Helper()
	bucket, err := blob.OpenBucket(context.Background(), "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bucket.Close() })
	return NewBlobStorageFromBucket(bucket, prefix)
}

func TestBlobStorage_PrefixIsolation(t *testing.T) {
	ctx := context.Background()
	bucket, err := blob.OpenBucket(ctx, "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bucket.Close() })

	storage := NewBlobStorageFromBucket(bucket, "collections")
	require.NoError(t, storage.Write(ctx, CurrentKey, []byte(`[]`)))

	// the bucket sees the prefixed key, callers never do
	raw, err := bucket.ReadAll(ctx, "collections/"+CurrentKey)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(raw))

	keys, err := storage.List(ctx, HistoryKeyPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{CurrentKey}, keys)
}

func TestBlobStorage_WriteSetsContentType(t *testing.T) {
	ctx := context.Background()
	bucket, err := blob.OpenBucket(ctx, "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bucket.Close() })

	storage := NewBlobStorageFromBucket(bucket, "")
	require.NoError(t, storage.Write(ctx, CurrentKey, []byte(`[]`)))

	attrs, err := bucket.Attributes(ctx, CurrentKey)
	require.NoError(t, err)
	assert.Equal(t, "application/json", attrs.ContentType)
}
