package precompute

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/mklyu/MatrixClassifier/blobstore"
	"github.com/mklyu/MatrixClassifier/cache"
)

// PersistFunc stores the cache after a run.
type PersistFunc func(ctx context.Context, c *cache.DistanceCache) error

type options struct {
	workers int
	logger  *slog.Logger
	persist PersistFunc
}

// Option configures an Engine.
type Option func(*options)

func defaultOptions() options {
	return options{
		workers: runtime.GOMAXPROCS(0),
		logger:  slog.New(slog.DiscardHandler),
	}
}

// WithWorkers sets the size of the worker pool. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPersist sets the function that stores the cache after a run.
func WithPersist(fn PersistFunc) Option {
	return func(o *options) {
		o.persist = fn
	}
}

// WithPersistFile saves the cache to path after a run.
func WithPersistFile(path string) Option {
	return WithPersist(func(_ context.Context, c *cache.DistanceCache) error {
		return c.Save(path)
	})
}

// WithPersistStore saves the cache to a blob store after a run.
func WithPersistStore(store blobstore.Store, name string) Option {
	return WithPersist(func(ctx context.Context, c *cache.DistanceCache) error {
		return c.SaveTo(ctx, store, name)
	})
}
