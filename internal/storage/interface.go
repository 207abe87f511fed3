package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned by Open when the key does not exist.
var ErrObjectNotFound = errors.New("storage: object not found")

// StorageInterface is the object store behind uploaded bank statements and
// documents. Keys are slash-separated paths such as
// "bank-statements/{user}/{session}/statement.csv".
type StorageInterface interface {
	// Put writes r under key and returns the number of bytes stored.
	Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error)

	// Open returns a reader for key. Callers must close it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether key exists and its size.
	Exists(ctx context.Context, key string) (exists bool, size int64, err error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
