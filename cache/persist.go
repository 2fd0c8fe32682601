package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mklyu/MatrixClassifier/blobstore"
	"github.com/mklyu/MatrixClassifier/internal/resource"
	"github.com/mklyu/MatrixClassifier/persistence"
)

// Serialize writes a complete dump of the cache to w.
func (c *DistanceCache) Serialize(w io.Writer) error {
	return persistence.WriteCache(w, c.Entries(), c.compression)
}

// Bytes returns the serialized cache.
func (c *DistanceCache) Bytes() ([]byte, error) {
	return persistence.EncodeCache(c.Entries(), c.compression)
}

// Deserialize replaces the cache contents with the dump read from r.
// It is not a merge. On error the cache is left unchanged.
func (c *DistanceCache) Deserialize(r io.Reader) error {
	entries, _, err := persistence.ReadCache(r)
	if err != nil {
		if errors.Is(err, persistence.ErrCorrupt) {
			return fmt.Errorf("%w: %w", ErrCorruptCache, err)
		}
		return err
	}
	return c.replace(entries)
}

// Save writes the cache to path atomically.
func (c *DistanceCache) Save(path string) error {
	start := time.Now()
	ctx := context.Background()
	err := persistence.SaveToFile(c.fs, path, func(w io.Writer) error {
		return c.Serialize(resource.NewRateLimitedWriter(ctx, w, c.rc))
	})
	if err != nil {
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	c.logger.Info("cache saved", "path", path, "entries", c.Len(), "duration", time.Since(start))
	return nil
}

// Load replaces the cache contents with the file at path.
func (c *DistanceCache) Load(path string) error {
	start := time.Now()
	ctx := context.Background()
	err := persistence.LoadFromFile(c.fs, path, func(r io.Reader) error {
		return c.Deserialize(resource.NewRateLimitedReader(ctx, r, c.rc))
	})
	if err != nil {
		return c.loadError(path, err)
	}
	c.logger.Info("cache loaded", "path", path, "entries", c.Len(), "duration", time.Since(start))
	return nil
}

// SaveTo writes the cache to a blob store under name.
// The blob is only committed if the whole dump was written.
func (c *DistanceCache) SaveTo(ctx context.Context, store blobstore.Store, name string) error {
	start := time.Now()
	w, err := store.Create(ctx, name)
	if err != nil {
		return &PersistenceError{Op: "save", Path: name, Err: err}
	}
	if err := c.Serialize(resource.NewRateLimitedWriter(ctx, w, c.rc)); err != nil {
		_ = w.Abort()
		return &PersistenceError{Op: "save", Path: name, Err: err}
	}
	if err := w.Close(); err != nil {
		return &PersistenceError{Op: "save", Path: name, Err: err}
	}
	c.logger.Info("cache saved", "blob", name, "entries", c.Len(), "duration", time.Since(start))
	return nil
}

// LoadFrom replaces the cache contents with the blob name from store.
func (c *DistanceCache) LoadFrom(ctx context.Context, store blobstore.Store, name string) error {
	start := time.Now()
	r, err := store.Open(ctx, name)
	if err != nil {
		return &PersistenceError{Op: "load", Path: name, Err: err}
	}
	defer func() { _ = r.Close() }()

	if err := c.Deserialize(resource.NewRateLimitedReader(ctx, r, c.rc)); err != nil {
		return c.loadError(name, err)
	}
	c.logger.Info("cache loaded", "blob", name, "entries", c.Len(), "duration", time.Since(start))
	return nil
}

func (c *DistanceCache) loadError(path string, err error) error {
	if errors.Is(err, ErrCorruptCache) || errors.Is(err, ErrCacheFull) {
		return fmt.Errorf("load cache %q: %w", path, err)
	}
	return &PersistenceError{Op: "load", Path: path, Err: err}
}
