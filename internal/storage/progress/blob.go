package progress

import (
	"context"
	"encoding/json"
	"fmt"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

const contentTypeJSON = "application/json"

type blobBackend struct {
	bucket *blob.Bucket
	key    string
}

// NewBlobBackend stores progress as a JSON array of ids in one object.
// The caller owns bucket.
func NewBlobBackend(bucket *blob.Bucket, key string) *blobBackend {
	return &blobBackend{
		bucket: bucket,
		key:    key,
	}
}

// OpenBucket opens a bucket by URL (file://, mem://, s3://).
func OpenBucket(ctx context.Context, url string) (*blob.Bucket, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("cannot open bucket %s: %w", url, err)
	}

	return bucket, nil
}

func (b *blobBackend) Load(ctx context.Context) ([]string, error) {
	data, err := b.bucket.ReadAll(ctx, b.key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, nil
		}

		return nil, fmt.Errorf("cannot read progress object %s: %w", b.key, err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("cannot parse progress object %s: %w", b.key, err)
	}

	return ids, nil
}

func (b *blobBackend) Save(ctx context.Context, ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("cannot encode progress: %w", err)
	}

	if err := b.bucket.WriteAll(ctx, b.key, data, &blob.WriterOptions{ContentType: contentTypeJSON}); err != nil {
		return fmt.Errorf("cannot write progress object %s: %w", b.key, err)
	}

	return nil
}

func (b *blobBackend) Clear(ctx context.Context) error {
	if err := b.bucket.Delete(ctx, b.key); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return fmt.Errorf("cannot delete progress object %s: %w", b.key, err)
	}

	return nil
}
