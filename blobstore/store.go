package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync/atomic"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrClosed is returned when writing to a blob that was already closed or aborted.
var ErrClosed = errors.New("blob already closed")

// Store is an abstraction for named, immutable blobs.
type Store interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Create creates a blob for streaming writes.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a blob atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// WritableBlob is a blob being written.
type WritableBlob interface {
	io.Writer
	// Close commits the blob.
	Close() error
	// Abort discards the blob.
	Abort() error
}

// BufferedBlob collects writes in memory and hands the complete payload to
// a commit function on Close. Backends whose native API takes a whole object
// use it to implement Create.
type BufferedBlob struct {
	buf      bytes.Buffer
	commit   func([]byte) error
	finished atomic.Bool
}

// NewBufferedBlob returns a WritableBlob that calls commit on Close.
func NewBufferedBlob(commit func([]byte) error) *BufferedBlob {
	return &BufferedBlob{commit: commit}
}

func (b *BufferedBlob) Write(p []byte) (int, error) {
	if b.finished.Load() {
		return 0, ErrClosed
	}
	return b.buf.Write(p)
}

// Close commits the buffered payload.
func (b *BufferedBlob) Close() error {
	if !b.finished.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return b.commit(b.buf.Bytes())
}

// Abort drops the buffered payload.
func (b *BufferedBlob) Abort() error {
	if !b.finished.CompareAndSwap(false, true) {
		return ErrClosed
	}
	b.buf.Reset()
	return nil
}

// ReadAll reads a whole blob.
func ReadAll(ctx context.Context, s Store, name string) ([]byte, error) {
	r, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return io.ReadAll(r)
}
