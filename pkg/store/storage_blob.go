package store

import (
	"context"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	// production bucket schemes, tests open mem:// buckets directly
	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
)

// slotContentType every slot holds a serialized collection
const slotContentType = "application/json"

// BlobStorage keeps the slots in a cloud bucket via gocloud.dev, for
// installations that want their snippets to survive the machine.
type BlobStorage struct {
	bucket *blob.Bucket
	prefix string
}

// NewBlobStorage opens the bucket behind a gs://, s3:// or azblob:// url.
// All keys are placed below the optional prefix.
func NewBlobStorage(ctx context.Context, bucketURL, prefix string) (*BlobStorage, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open bucket %q", bucketURL)
	}
	return NewBlobStorageFromBucket(bucket, prefix), nil
}

// NewBlobStorageFromBucket wraps an already opened bucket, tests use it
// with memblob.
func NewBlobStorageFromBucket(bucket *blob.Bucket, prefix string) *BlobStorage {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &BlobStorage{
		bucket: bucket,
		prefix: prefix,
	}
}

func (b *BlobStorage) slotKey(key string) string {
	return b.prefix + key
}

func (b *BlobStorage) Write(ctx context.Context, key string, data []byte) error {
	opts := &blob.WriterOptions{ContentType: slotContentType}
	if err := b.bucket.WriteAll(ctx, b.slotKey(key), data, opts); err != nil {
		return errors.Wrapf(err, "failed to write slot %q", key)
	}
	return nil
}

func (b *BlobStorage) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := b.bucket.ReadAll(ctx, b.slotKey(key))
	switch {
	case gcerrors.Code(err) == gcerrors.NotFound:
		return nil, os.ErrNotExist
	case err != nil:
		return nil, errors.Wrapf(err, "failed to read slot %q", key)
	}
	return data, nil
}

func (b *BlobStorage) List(ctx context.Context, prefix string) ([]string, error) {
	iter := b.bucket.List(&blob.ListOptions{Prefix: b.slotKey(prefix)})

	var keys []string
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to list slots")
		}
		if name, ok := strings.CutPrefix(obj.Key, b.prefix); ok {
			keys = append(keys, name)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

func (b *BlobStorage) Delete(ctx context.Context, key string) error {
	err := b.bucket.Delete(ctx, b.slotKey(key))
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return errors.Wrapf(err, "failed to delete slot %q", key)
	}
	return nil
}

func (b *BlobStorage) Close() error {
	return b.bucket.Close()
}
