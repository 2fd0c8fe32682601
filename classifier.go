package classifier

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/mklyu/MatrixClassifier/cache"
	"github.com/mklyu/MatrixClassifier/codec"
	"github.com/mklyu/MatrixClassifier/dataset"
	"github.com/mklyu/MatrixClassifier/distance"
	"github.com/mklyu/MatrixClassifier/internal/resource"
	"github.com/mklyu/MatrixClassifier/kmedoids"
	"github.com/mklyu/MatrixClassifier/precompute"
)

// Classifier ties a dataset to a cached metric and clusters it.
// It is safe for concurrent use; Precompute and Cluster share the cache.
type Classifier struct {
	ds     dataset.Dataset
	cache  *cache.DistanceCache
	rc     *resource.Controller
	opts   options
	closed atomic.Bool

	normName string
}

// New creates a Classifier over ds with an empty distance cache.
func New(ds dataset.Dataset, opts ...Option) (*Classifier, error) {
	if ds == nil {
		return nil, configError("dataset", "must not be nil", nil)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.memoryLimit < 0 {
		return nil, configError("memory limit", "must be >= 0", nil)
	}
	if o.ioLimit < 0 {
		return nil, configError("io limit", "must be >= 0", nil)
	}

	metric, normName := o.metric, "custom"
	if metric == nil {
		normName = o.normType.String()
		m, err := distance.Provider(o.normType)
		if err != nil {
			return nil, err
		}
		metric = m
	}

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   o.memoryLimit,
		IOLimitBytesPerSec: o.ioLimit,
	})
	c := cache.New(metric,
		cache.WithLogger(o.logger.Logger),
		cache.WithCompression(o.compression),
		cache.WithResourceController(rc),
	)

	return &Classifier{
		ds:    ds,
		cache: c,
		rc:    rc,
		opts:  o,

		normName: normName,
	}, nil
}

// Dataset returns the clustered dataset.
func (c *Classifier) Dataset() dataset.Dataset {
	return c.ds
}

// Cache returns the distance cache.
func (c *Classifier) Cache() *cache.DistanceCache {
	return c.cache
}

// Codec returns the codec reports are encoded with.
func (c *Classifier) Codec() codec.Codec {
	return c.opts.codec
}

// Encode marshals v with the configured codec.
func (c *Classifier) Encode(v any) ([]byte, error) {
	return c.opts.codec.Marshal(v)
}

// Persistent reports whether a cache file or store is configured.
func (c *Classifier) Persistent() bool {
	return c.opts.store != nil || c.opts.cachePath != ""
}

func (c *Classifier) cacheLocation() string {
	if c.opts.store != nil {
		return c.opts.cacheName
	}
	return c.opts.cachePath
}

// LoadCache replaces the cache with the persisted one. It reports false
// without error when nothing is configured or nothing has been saved yet.
// A failed load leaves the in-memory cache untouched.
func (c *Classifier) LoadCache(ctx context.Context) (bool, error) {
	if c.closed.Load() {
		return false, ErrClosed
	}
	if !c.Persistent() {
		return false, nil
	}

	start := time.Now()
	var err error
	if c.opts.store != nil {
		err = c.cache.LoadFrom(ctx, c.opts.store, c.opts.cacheName)
	} else {
		err = c.cache.Load(c.opts.cachePath)
	}
	if errors.Is(err, ErrNotFound) {
		c.opts.logger.DebugContext(ctx, "no persisted cache", "name", c.cacheLocation())
		return false, nil
	}

	c.opts.metrics.RecordCacheLoad(c.cache.Len(), time.Since(start), err)
	c.opts.logger.LogCache(ctx, "load", c.cacheLocation(), c.cache.Len(), err)
	if err != nil {
		return false, err
	}
	return true, nil
}

// SaveCache persists the cache. It is a no-op when nothing is configured.
func (c *Classifier) SaveCache(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if !c.Persistent() {
		return nil
	}
	return c.persist(ctx, c.cache)
}

func (c *Classifier) persist(ctx context.Context, dc *cache.DistanceCache) error {
	start := time.Now()
	var err error
	if c.opts.store != nil {
		err = dc.SaveTo(ctx, c.opts.store, c.opts.cacheName)
	} else {
		err = dc.Save(c.opts.cachePath)
	}
	c.opts.metrics.RecordCachePersist(dc.Len(), time.Since(start), err)
	c.opts.logger.LogCache(ctx, "save", c.cacheLocation(), dc.Len(), err)
	return err
}

// Precompute fills the cache with every pair of the configured universe and
// persists it when a cache file or store is configured.
func (c *Classifier) Precompute(ctx context.Context) (precompute.Stats, error) {
	if c.closed.Load() {
		return precompute.Stats{}, ErrClosed
	}

	opts := []precompute.Option{
		precompute.WithWorkers(c.opts.workers),
		precompute.WithLogger(c.opts.logger.Logger),
	}
	if c.Persistent() {
		opts = append(opts, precompute.WithPersist(c.persist))
	}

	stats, err := precompute.New(c.ds, c.cache, opts...).Run(ctx, c.opts.universe)
	c.opts.metrics.RecordPrecompute(stats.Pairs, stats.Computed, stats.Failed, stats.Duration, err)
	c.opts.logger.LogPrecompute(ctx, stats, err)
	return stats, err
}

// Cluster runs k-medoids over the dataset, reading distances through the
// cache, and returns the final assignment. An empty dataset yields an
// empty report.
func (c *Classifier) Cluster(ctx context.Context) (*Report, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	logger := c.opts.logger.WithK(c.opts.k)
	n := c.ds.Len()
	if n == 0 {
		logger.InfoContext(ctx, "cluster: nothing to do")
		return &Report{
			NormType: c.normName,
			K:        c.opts.k,
			State:    kmedoids.StateInitialized.String(),
			Cache:    c.CacheReport(),
		}, nil
	}

	cfg := kmedoids.Config{
		K:             c.opts.k,
		MaxIterations: c.opts.maxIterations,
		Seed:          c.opts.seed,
		Workers:       c.opts.workers,
	}
	kopts := []kmedoids.Option{
		kmedoids.WithLogger(logger.Logger),
		kmedoids.WithOnIteration(func(info kmedoids.IterationInfo) {
			c.opts.metrics.RecordIteration(info.Iteration, info.Changed, info.Cost, info.Duration)
			logger.LogIteration(ctx, info)
		}),
	}
	if c.opts.initialMedoids != nil {
		kopts = append(kopts, kmedoids.WithInitialMedoids(c.opts.initialMedoids...))
	}

	start := time.Now()
	km, err := kmedoids.New(c.ds, c.cache, cfg, kopts...)
	if err != nil {
		err = translateError(err)
		logger.LogCluster(ctx, nil, err)
		return nil, err
	}
	res, err := km.Run(ctx)
	logger.LogCluster(ctx, res, err)
	if err != nil {
		return nil, err
	}
	return c.newReport(res, time.Since(start))
}

// Close releases the store opened by Config.Options. Further calls on c
// return ErrClosed.
func (c *Classifier) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	var errs []error
	for _, cl := range c.opts.closers {
		errs = append(errs, cl.Close())
	}
	return errors.Join(errs...)
}
