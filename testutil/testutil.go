package testutil

import (
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/mklyu/MatrixClassifier/dataset"
	"github.com/mklyu/MatrixClassifier/distance"
	"github.com/mklyu/MatrixClassifier/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// FillUniform fills dst with values in [0, 1).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// UniformItems generates num items of the given shape with values in [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformItems(num int, shape model.Shape) []model.Item {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := shape.Size()
	data := make([]float32, num*size)
	items := make([]model.Item, num)
	for i := range num {
		vals := data[i*size : (i+1)*size]
		for j := range vals {
			vals[j] = r.rand.Float32()
		}
		items[i] = model.Item{Shape: shape, Data: vals}
	}
	return items
}

// UniformCollection is UniformItems stored in a Collection.
func (r *RNG) UniformCollection(num int, shape model.Shape) *dataset.Collection {
	c := dataset.NewCollection(shape, num)
	for _, it := range r.UniformItems(num, shape) {
		if _, err := c.Append(it.Data, 0); err != nil {
			panic(err)
		}
	}
	return c
}

// SeparatedGroups generates groups*perGroup items. Group g is centered at
// the constant value g*gap and each element gets uniform noise in
// [-spread/2, spread/2). Items are interleaved (item i belongs to group
// i % groups) so group membership does not follow index order.
// truth[i] is the group of item i; it is also stored as the item's label.
func (r *RNG) SeparatedGroups(groups, perGroup int, shape model.Shape, gap, spread float32) (*dataset.Collection, []int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := groups * perGroup
	c := dataset.NewCollection(shape, n)
	truth := make([]int, n)
	vals := make([]float32, shape.Size())
	for i := range n {
		g := i % groups
		center := float32(g) * gap
		for j := range vals {
			vals[j] = center + (r.rand.Float32()-0.5)*spread
		}
		if _, err := c.Append(vals, g); err != nil {
			panic(err)
		}
		truth[i] = g
	}
	return c, truth
}

// SliceDataset is a Dataset backed by a slice. Unlike dataset.Collection it
// accepts items of different shapes.
type SliceDataset []model.Item

// Len implements dataset.Dataset.
func (s SliceDataset) Len() int { return len(s) }

// ItemAt implements dataset.Dataset.
func (s SliceDataset) ItemAt(i model.Index) (model.Item, error) {
	if i < 0 || int(i) >= len(s) {
		return model.Item{}, &dataset.IndexOutOfRangeError{Index: i, Len: len(s)}
	}
	return s[i], nil
}

// CountingMetric wraps a metric and counts calls.
type CountingMetric struct {
	Inner distance.Metric
	calls atomic.Int64
}

// NewCountingMetric wraps inner (distance.L2 when nil).
func NewCountingMetric(inner distance.Metric) *CountingMetric {
	if inner == nil {
		inner = distance.L2{}
	}
	return &CountingMetric{Inner: inner}
}

// Calculate implements distance.Metric.
func (m *CountingMetric) Calculate(a, b model.Item) (float32, error) {
	m.calls.Add(1)
	return m.Inner.Calculate(a, b)
}

// Calls returns the number of Calculate calls so far.
func (m *CountingMetric) Calls() int64 {
	return m.calls.Load()
}
