// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: Represents an open file with read/write/sync capabilities
//   - [FileSystem]: Abstracts filesystem operations (open, remove, rename, etc.)
//
// # Implementations
//
//   - [LocalFS]: Production implementation using standard os package
//   - [FaultyFS]: Test utility for fault injection (simulate I/O errors)
//
// Cache files are saved through a FileSystem so tests can make a location
// unwritable or fail mid-write:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("cache.bin", fs.Fault{FailAfterBytes: 64})
//
// This package intentionally does NOT include context.Context parameters.
// For remote storage use the blobstore package, which does.
package fs
