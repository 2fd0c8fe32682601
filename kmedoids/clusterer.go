package kmedoids

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bits-and-blooms/bitset"
	"github.com/mklyu/MatrixClassifier/cache"
	"github.com/mklyu/MatrixClassifier/dataset"
	"github.com/mklyu/MatrixClassifier/model"
)

// Clusterer runs k-medoids over a dataset.
// Step and Run must not be called concurrently; the read methods may be
// called at any time.
type Clusterer struct {
	items   []model.Item
	metric  PairMetric
	cfg     Config
	workers int
	logger  *slog.Logger
	hook    func(IterationInfo)

	mu         sync.RWMutex
	medoids    []model.Index
	state      State
	iterations int
}

// New validates cfg, reads every item of ds and picks the initial medoids.
func New(ds dataset.Dataset, m PairMetric, cfg Config, opts ...Option) (*Clusterer, error) {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.MaxIterations < 0 {
		return nil, fmt.Errorf("%w: max iterations %d", ErrInvalidConfig, cfg.MaxIterations)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("%w: workers %d", ErrInvalidConfig, cfg.Workers)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: nil metric", ErrInvalidConfig)
	}

	n := ds.Len()
	if cfg.K <= 0 || cfg.K > n {
		return nil, &InvalidKError{K: cfg.K, N: n}
	}

	items, err := dataset.Items(ds)
	if err != nil {
		return nil, err
	}

	medoids, err := initialMedoids(n, cfg, o.initial)
	if err != nil {
		return nil, err
	}

	c := &Clusterer{
		items:   items,
		metric:  m,
		cfg:     cfg,
		workers: max(cfg.Workers, 1),
		logger:  o.logger,
		hook:    o.onIteration,
		medoids: medoids,
		state:   StateInitialized,
	}
	c.logger.Debug("medoids initialized", "k", cfg.K, "items", n, "medoids", medoids)
	return c, nil
}

// initialMedoids returns K distinct indices: the explicit ones when given,
// otherwise a prefix of a seeded permutation.
func initialMedoids(n int, cfg Config, explicit []model.Index) ([]model.Index, error) {
	if explicit == nil {
		perm := rand.New(rand.NewSource(cfg.Seed)).Perm(n)
		medoids := make([]model.Index, cfg.K)
		for i := range medoids {
			medoids[i] = model.Index(perm[i])
		}
		return medoids, nil
	}

	if len(explicit) != cfg.K {
		return nil, fmt.Errorf("%w: %d initial medoids for k=%d", ErrInvalidConfig, len(explicit), cfg.K)
	}
	seen := bitset.New(uint(n))
	for _, m := range explicit {
		if m < 0 || int(m) >= n {
			return nil, &dataset.IndexOutOfRangeError{Index: m, Len: n}
		}
		if seen.Test(uint(m)) {
			return nil, fmt.Errorf("%w: duplicate initial medoid %d", ErrInvalidConfig, m)
		}
		seen.Set(uint(m))
	}
	return explicit, nil
}

// Medoids returns a copy of the current medoid set in slot order.
func (c *Clusterer) Medoids() []model.Index {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneIndices(c.medoids)
}

// State returns the current state.
func (c *Clusterer) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Iterations returns the number of completed iterations.
func (c *Clusterer) Iterations() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.iterations
}

// Len returns the number of items being clustered.
func (c *Clusterer) Len() int {
	return len(c.items)
}

// Run iterates until the clusterer converges or exhausts its iteration cap,
// then returns the final assignment.
func (c *Clusterer) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		done, err := c.Step(ctx)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}

	clusters, cost, err := c.assign(ctx, c.Medoids())
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	res := &Result{
		Medoids:    cloneIndices(c.medoids),
		Clusters:   clusters,
		Iterations: c.iterations,
		State:      c.state,
		Cost:       cost,
	}
	c.mu.RUnlock()

	c.logger.Info("clustering finished",
		"state", res.State.String(),
		"iterations", res.Iterations,
		"k", c.cfg.K,
		"cost", res.Cost,
		"duration", time.Since(start),
	)
	return res, nil
}

// Step runs one assign/update iteration. It reports true once the
// clusterer is in a terminal state; calling Step again is then a no-op.
func (c *Clusterer) Step(ctx context.Context) (bool, error) {
	c.mu.RLock()
	state, iterations := c.state, c.iterations
	current := cloneIndices(c.medoids)
	c.mu.RUnlock()

	if state.Terminal() {
		return true, nil
	}
	if iterations >= c.cfg.MaxIterations {
		c.setState(StateExhausted)
		return true, nil
	}

	start := time.Now()
	clusters, cost, err := c.assign(ctx, current)
	if err != nil {
		return false, err
	}
	next, err := c.update(ctx, clusters)
	if err != nil {
		return false, err
	}

	prevSet := bitmapOf(current)
	nextSet := bitmapOf(next)
	changed := int(roaring.AndNot(nextSet, prevSet).GetCardinality())

	c.mu.Lock()
	c.iterations++
	switch {
	case nextSet.Equals(prevSet):
		c.state = StateConverged
	case c.iterations >= c.cfg.MaxIterations:
		c.medoids = next
		c.state = StateExhausted
	default:
		c.medoids = next
		c.state = StateIterating
	}
	info := IterationInfo{
		Iteration: c.iterations,
		Changed:   changed,
		Cost:      cost,
		State:     c.state,
		Duration:  time.Since(start),
	}
	c.mu.Unlock()

	c.logger.Debug("iteration finished",
		"iteration", info.Iteration,
		"changed", info.Changed,
		"cost", info.Cost,
		"state", info.State.String(),
	)
	if c.hook != nil {
		c.hook(info)
	}
	return info.State.Terminal(), nil
}

// GetClusters computes the assignment for the current medoids.
// It does not change the clusterer's state.
func (c *Clusterer) GetClusters(ctx context.Context) (Clusters, error) {
	clusters, _, err := c.assign(ctx, c.Medoids())
	return clusters, err
}

func (c *Clusterer) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

func bitmapOf(indices []model.Index) *roaring.Bitmap {
	bm := roaring.New()
	for _, i := range indices {
		bm.Add(uint32(i))
	}
	return bm
}

func (c *Clusterer) distance(i, j model.Index) (float64, error) {
	d, err := c.metric.ComputeOrFetch(c.items[i], c.items[j], i, j)
	// A full cache still returns the computed distance.
	if err != nil && !errors.Is(err, cache.ErrCacheFull) {
		return 0, fmt.Errorf("distance (%d, %d): %w", i, j, err)
	}
	return float64(d), nil
}

// assign maps every item to its nearest medoid and returns the clusters
// together with the total distance of items to their medoids.
func (c *Clusterer) assign(ctx context.Context, medoids []model.Index) (Clusters, float64, error) {
	n := len(c.items)
	isMedoid := bitset.New(uint(n))
	slotOf := make(map[model.Index]int, len(medoids))
	for slot, m := range medoids {
		isMedoid.Set(uint(m))
		slotOf[m] = slot
	}

	labels := make([]int, n)
	costs := make([]float64, n)
	err := parallelFor(ctx, c.workers, n, func(ctx context.Context, start, end int) error {
		for i := start; i < end; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if isMedoid.Test(uint(i)) {
				labels[i] = slotOf[model.Index(i)]
				continue
			}
			best, bestDist := -1, math.Inf(1)
			for slot, m := range medoids {
				d, err := c.distance(model.Index(i), m)
				if err != nil {
					return err
				}
				if best < 0 || d < bestDist {
					best, bestDist = slot, d
				}
			}
			labels[i] = best
			costs[i] = bestDist
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	clusters := make(Clusters, len(medoids))
	for slot, m := range medoids {
		clusters[slot].Medoid = m
	}
	var cost float64
	for i, slot := range labels {
		clusters[slot].Members = append(clusters[slot].Members, model.Index(i))
		cost += costs[i]
	}
	return clusters, cost, nil
}

// update returns, per cluster, the member with the smallest sum of
// distances to the other members.
func (c *Clusterer) update(ctx context.Context, clusters Clusters) ([]model.Index, error) {
	next := make([]model.Index, len(clusters))
	err := parallelFor(ctx, c.workers, len(clusters), func(ctx context.Context, start, end int) error {
		for slot := start; slot < end; slot++ {
			m, err := c.mostCentral(ctx, clusters[slot].Members)
			if err != nil {
				return err
			}
			next[slot] = m
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (c *Clusterer) mostCentral(ctx context.Context, members []model.Index) (model.Index, error) {
	sums := make([]float64, len(members))
	for x := range members {
		if err := ctx.Err(); err != nil {
			return model.NoIndex, err
		}
		for y := x + 1; y < len(members); y++ {
			d, err := c.distance(members[x], members[y])
			if err != nil {
				return model.NoIndex, err
			}
			sums[x] += d
			sums[y] += d
		}
	}

	best := 0
	for x := 1; x < len(members); x++ {
		if sums[x] < sums[best] {
			best = x
		}
	}
	return members[best], nil
}
