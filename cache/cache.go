package cache

import (
	"encoding/binary"
	"fmt"
	"hash/maphash"
	"log/slog"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/mklyu/MatrixClassifier/distance"
	"github.com/mklyu/MatrixClassifier/internal/fs"
	"github.com/mklyu/MatrixClassifier/internal/resource"
	"github.com/mklyu/MatrixClassifier/model"
	"github.com/mklyu/MatrixClassifier/persistence"
)

const numShards = 64

// EntryBytes is the memory charged to the resource controller per entry.
const EntryBytes = 16

// Stats holds cache counters.
// Misses counts computed distances that were stored (or refused by the
// memory budget). A lookup that computes but loses the race to store the
// same key counts as a hit.
type Stats struct {
	Entries   int
	Hits      int64
	Misses    int64
	Bypassed  int64
	SelfPairs int64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type shard struct {
	mu      sync.RWMutex
	entries map[model.PairKey]float32
}

// DistanceCache memoizes a distance.Metric by index pair.
// It is itself a distance.Metric (unindexed calls bypass the cache) and a
// distance.IndexedMetric.
type DistanceCache struct {
	metric distance.Metric
	shards [numShards]shard
	seed   maphash.Seed

	compression persistence.CompressionType
	rc          *resource.Controller
	fs          fs.FileSystem
	logger      *slog.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	bypassed  atomic.Int64
	selfPairs atomic.Int64
}

var (
	_ distance.Metric        = (*DistanceCache)(nil)
	_ distance.IndexedMetric = (*DistanceCache)(nil)
)

// New creates an empty cache wrapping metric.
func New(metric distance.Metric, opts ...Option) *DistanceCache {
	o := options{
		compression: persistence.CompressionNone,
		fs:          fs.Default,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &DistanceCache{
		metric:      metric,
		seed:        maphash.MakeSeed(),
		compression: o.compression,
		rc:          o.rc,
		fs:          o.fs,
		logger:      o.logger,
	}
	for i := range c.shards {
		c.shards[i].entries = make(map[model.PairKey]float32)
	}
	return c
}

// Metric returns the wrapped metric.
func (c *DistanceCache) Metric() distance.Metric {
	return c.metric
}

func (c *DistanceCache) shardIndex(key model.PairKey) int {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:], key.Lo)
	binary.LittleEndian.PutUint32(buf[4:], key.Hi)
	return int(maphash.Bytes(c.seed, buf[:]) % numShards)
}

func (c *DistanceCache) shard(key model.PairKey) *shard {
	return &c.shards[c.shardIndex(key)]
}

// Calculate implements distance.Metric. It never consults the cache.
func (c *DistanceCache) Calculate(a, b model.Item) (float32, error) {
	c.bypassed.Add(1)
	return c.metric.Calculate(a, b)
}

// ComputeOrFetch returns the distance between a and b, keyed by ia and ib.
// If either index is model.NoIndex the cache is bypassed. A self-pair
// (ia == ib) is 0 and is never stored.
//
// When the memory budget refuses a new entry the computed distance is
// returned together with an error matching ErrCacheFull. A negative, NaN
// or infinite distance is not cached and yields ErrInvalidDistance.
func (c *DistanceCache) ComputeOrFetch(a, b model.Item, ia, ib model.Index) (float32, error) {
	if ia == model.NoIndex || ib == model.NoIndex {
		return c.Calculate(a, b)
	}

	key, ok, err := model.MakePairKey(ia, ib)
	if err != nil {
		return 0, err
	}
	if !ok {
		c.selfPairs.Add(1)
		c.logger.Debug("self-pair requested", "index", int(ia))
		return 0, nil
	}

	s := c.shard(key)
	s.mu.RLock()
	d, found := s.entries[key]
	s.mu.RUnlock()
	if found {
		c.hits.Add(1)
		return d, nil
	}

	// The metric is pure, so it runs outside the lock.
	d, err = c.metric.Calculate(a, b)
	if err != nil {
		return 0, err
	}
	if f := float64(d); math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, fmt.Errorf("%w: %v for %s", ErrInvalidDistance, d, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, found := s.entries[key]; found {
		c.hits.Add(1)
		return prev, nil
	}
	c.misses.Add(1)
	if err := c.rc.AcquireMemory(EntryBytes); err != nil {
		return d, fmt.Errorf("%w: %w", ErrCacheFull, err)
	}
	s.entries[key] = d
	return d, nil
}

// Lookup returns the cached distance for (i, j) without computing it.
func (c *DistanceCache) Lookup(i, j model.Index) (float32, bool) {
	key, ok, err := model.MakePairKey(i, j)
	if err != nil || !ok {
		return 0, false
	}
	s := c.shard(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, found := s.entries[key]
	return d, found
}

// Len returns the number of cached entries.
func (c *DistanceCache) Len() int {
	n := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

// Stats returns the cache counters.
func (c *DistanceCache) Stats() Stats {
	return Stats{
		Entries:   c.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Bypassed:  c.bypassed.Load(),
		SelfPairs: c.selfPairs.Load(),
	}
}

// Entries returns a snapshot of all entries sorted by key.
func (c *DistanceCache) Entries() []persistence.Entry {
	out := make([]persistence.Entry, 0, c.Len())
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.RLock()
		for k, d := range s.entries {
			out = append(out, persistence.Entry{Key: k, Distance: d})
		}
		s.mu.RUnlock()
	}
	slices.SortFunc(out, func(a, b persistence.Entry) int {
		switch {
		case a.Key.Less(b.Key):
			return -1
		case b.Key.Less(a.Key):
			return 1
		default:
			return 0
		}
	})
	return out
}

// Reset drops every entry and releases its memory reservation.
// Counters are kept.
func (c *DistanceCache) Reset() {
	_ = c.replace(nil)
}

// replace swaps in a new entry set while holding every shard lock.
func (c *DistanceCache) replace(entries []persistence.Entry) error {
	next := make([]map[model.PairKey]float32, numShards)
	for i := range next {
		next[i] = make(map[model.PairKey]float32)
	}
	for _, e := range entries {
		next[c.shardIndex(e.Key)][e.Key] = e.Distance
	}

	for i := range c.shards {
		c.shards[i].mu.Lock()
	}
	defer func() {
		for i := range c.shards {
			c.shards[i].mu.Unlock()
		}
	}()

	old := 0
	for i := range c.shards {
		old += len(c.shards[i].entries)
	}
	delta := int64(len(entries)-old) * EntryBytes
	if delta > 0 {
		if err := c.rc.AcquireMemory(delta); err != nil {
			return fmt.Errorf("%w: %w", ErrCacheFull, err)
		}
	} else {
		c.rc.ReleaseMemory(-delta)
	}

	for i := range c.shards {
		c.shards[i].entries = next[i]
	}
	return nil
}
