package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when an artifact does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for writing and reading quantization artifacts.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put writes an artifact atomically. On failure no partial object remains.
	Put(ctx context.Context, name string, data []byte) error

	// Open opens an existing artifact for reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// List returns artifact names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
