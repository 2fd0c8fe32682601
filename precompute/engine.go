package precompute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mklyu/MatrixClassifier/cache"
	"github.com/mklyu/MatrixClassifier/dataset"
	"github.com/mklyu/MatrixClassifier/model"
	"golang.org/x/sync/errgroup"
)

// maxReportedErrors bounds how many task errors are returned verbatim.
const maxReportedErrors = 32

// Stats summarizes a run.
type Stats struct {
	Pairs    int
	Computed int64
	Hits     int64
	Failed   int
	Duration time.Duration
}

// FailureSummary is joined into the error of a run with failed pairs.
type FailureSummary struct {
	Failed int
	Pairs  int
}

func (e *FailureSummary) Error() string {
	return fmt.Sprintf("%d of %d pair computations failed", e.Failed, e.Pairs)
}

// Engine populates a DistanceCache from a dataset.
type Engine struct {
	ds    dataset.Dataset
	cache *cache.DistanceCache
	opts  options
}

// New creates an engine for ds writing into c.
func New(ds dataset.Dataset, c *cache.DistanceCache, opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{ds: ds, cache: c, opts: o}
}

// Workers returns the pool size.
func (e *Engine) Workers() int {
	return e.opts.workers
}

type failures struct {
	mu    sync.Mutex
	count int
	errs  []error
}

func (f *failures) add(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	if len(f.errs) < maxReportedErrors {
		f.errs = append(f.errs, err)
	}
}

// Run computes every pair of u. It blocks until all submitted pairs are
// done, then persists the cache if a persist target is configured.
//
// Pair failures are returned together via errors.Join once every other
// pair has finished. Cancelling ctx stops submission; pairs already
// submitted still complete, and the cache is not persisted.
func (e *Engine) Run(ctx context.Context, u Universe) (Stats, error) {
	n := e.ds.Len()
	if n == 0 {
		e.opts.logger.Info("precompute: nothing to do", "universe", u.String())
		return Stats{}, nil
	}
	if v, ok := u.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return Stats{}, err
		}
	}

	start := time.Now()
	before := e.cache.Stats()
	e.opts.logger.Info("precompute started",
		"items", n,
		"universe", u.String(),
		"pairs", u.Count(n),
		"workers", e.opts.workers,
	)

	var (
		g     errgroup.Group
		fails failures
		pairs int
	)
	g.SetLimit(e.opts.workers)

	for i, j := range u.Pairs(n) {
		if ctx.Err() != nil {
			break
		}
		pairs++
		// Go blocks while all workers are busy.
		g.Go(func() error {
			if err := e.computePair(i, j); err != nil {
				fails.add(err)
			}
			return nil
		})
	}
	_ = g.Wait()

	after := e.cache.Stats()
	stats := Stats{
		Pairs:    pairs,
		Computed: after.Misses - before.Misses,
		Hits:     after.Hits - before.Hits,
		Failed:   fails.count,
		Duration: time.Since(start),
	}

	var errs []error
	if stats.Failed > 0 {
		errs = append(errs, fails.errs...)
		errs = append(errs, &FailureSummary{Failed: stats.Failed, Pairs: stats.Pairs})
	}

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	} else if e.opts.persist != nil {
		if err := e.opts.persist(ctx, e.cache); err != nil {
			errs = append(errs, fmt.Errorf("persist: %w", err))
		}
	}

	level := slog.LevelInfo
	if len(errs) > 0 {
		level = slog.LevelWarn
	}
	e.opts.logger.Log(ctx, level, "precompute finished",
		"pairs", stats.Pairs,
		"computed", stats.Computed,
		"hits", stats.Hits,
		"failed", stats.Failed,
		"entries", after.Entries,
		"duration", stats.Duration,
	)

	return stats, errors.Join(errs...)
}

func (e *Engine) computePair(i, j model.Index) error {
	a, err := e.ds.ItemAt(i)
	if err != nil {
		return fmt.Errorf("pair (%d, %d): %w", i, j, err)
	}
	b, err := e.ds.ItemAt(j)
	if err != nil {
		return fmt.Errorf("pair (%d, %d): %w", i, j, err)
	}
	if _, err := e.cache.ComputeOrFetch(a, b, i, j); err != nil {
		return fmt.Errorf("pair (%d, %d): %w", i, j, err)
	}
	return nil
}
