package domain

import "context"

// FileStore abstracts raw file byte storage.
// The default implementation stores BLOBs in the database; the S3 store
// keeps objects in a bucket under the same keys.
type FileStore interface {
	Save(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) (data []byte, contentType string, err error)
	Delete(ctx context.Context, key string) error
}
