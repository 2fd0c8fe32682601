// Package blobstore abstracts where serialized distance caches live.
//
// A Store holds whole, named blobs. Writes are all-or-nothing: a
// WritableBlob becomes visible under its name only when Close succeeds,
// and Abort discards everything written so far.
//
//	type Store interface {
//	    Open(ctx, name) (io.ReadCloser, error)       // Open for reading
//	    Create(ctx, name) (WritableBlob, error)      // Create for writing
//	    Put(ctx, name, data) error                   // Atomic write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Backends:
//   - LocalStore: files under a root directory (atomic temp file + rename)
//   - MemoryStore: in-process map, for tests
//   - s3.Store: Amazon S3 (subpackage s3)
//   - minio.Store: MinIO and other S3-compatible servers (subpackage minio)
//   - sqlite.Store: a single SQLite database file (subpackage sqlite)
package blobstore
