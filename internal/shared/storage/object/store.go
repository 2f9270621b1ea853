package object

import (
	"context"
	"io"
)

// ObjectStore stages binary objects such as rendered documents. Keys come
// from NewKey, so every Save yields a fresh key and objects are never
// overwritten. Delete of a missing key succeeds.
type ObjectStore interface {
	Save(ctx context.Context, owner string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}
