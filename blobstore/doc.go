// Package blobstore provides the storage abstraction for quantization artifacts.
//
// Store is the interface the exporters write through. Every artifact is written
// exactly once per invocation via Put, which must be atomic: a failed write
// leaves no partial object behind.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, temp-file + rename writes
//   - MemoryStore: in-memory store for tests
//   - s3.Store: Amazon S3
//   - minio.Store: MinIO and S3-compatible storage
//
// # Custom Implementations
//
// Implement the Store interface to ship artifacts to custom backends:
//
//	type Store interface {
//	    Put(ctx, name, data) error          // Atomic write
//	    Open(ctx, name) (io.ReadCloser, error)
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
