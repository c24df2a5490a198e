// Package store defines the remote blob store the collection and request list
// live in. A blob is an opaque byte document addressed by key and carrying an
// opaque version token used for optimistic concurrency.
package store

import (
	"context"
)

// Blob is a stored document and the version it was read at.
type Blob struct {
	Key     string
	Data    []byte
	Version string
}

// Reader fetches blobs.
type Reader interface {
	// Get returns the blob stored at key, or an error matching errors.ErrNotFound.
	Get(ctx context.Context, key string) (*Blob, error)
}

// Writer stores blobs.
type Writer interface {
	// Put stores data at key. When version is empty the blob is created
	// unconditionally; otherwise the write only succeeds if the stored version
	// still equals version, and a mismatch returns an error matching
	// errors.ErrConflict. The new version is returned.
	Put(ctx context.Context, key string, data []byte, version string) (string, error)
}

// Store is a readable and writable blob store.
type Store interface {
	Reader
	Writer
}
