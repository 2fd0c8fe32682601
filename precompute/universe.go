package precompute

import (
	"errors"
	"fmt"
	"iter"
	"math/rand"
	"strings"

	"github.com/mklyu/MatrixClassifier/model"
)

// ErrInvalidUniverse is returned for unknown policies or bad parameters.
var ErrInvalidUniverse = errors.New("invalid pair universe")

// Universe enumerates the index pairs of a collection of size n.
// Every pair is yielded once with i != j.
type Universe interface {
	Pairs(n int) iter.Seq2[model.Index, model.Index]
	Count(n int) int
	String() string
}

// Exhaustive yields every pair 0 <= i < j < n.
type Exhaustive struct{}

// Pairs implements Universe.
func (Exhaustive) Pairs(n int) iter.Seq2[model.Index, model.Index] {
	return func(yield func(model.Index, model.Index) bool) {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if !yield(model.Index(i), model.Index(j)) {
					return
				}
			}
		}
	}
}

// Count returns n(n-1)/2.
func (Exhaustive) Count(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}

func (Exhaustive) String() string { return "exhaustive" }

// WindowedSample shuffles the indices with a seeded permutation. The first
// SampleSize shuffled positions are anchors, and the anchor at position p
// is paired with positions p+1 .. p+Window-1.
type WindowedSample struct {
	SampleSize int
	Window     int
	Seed       int64
}

// Validate checks the parameters.
func (w WindowedSample) Validate() error {
	if w.SampleSize < 0 {
		return fmt.Errorf("%w: sample size %d", ErrInvalidUniverse, w.SampleSize)
	}
	if w.Window < 2 {
		return fmt.Errorf("%w: window %d must be at least 2", ErrInvalidUniverse, w.Window)
	}
	return nil
}

// Pairs implements Universe. The same seed always yields the same pairs in
// the same order.
func (w WindowedSample) Pairs(n int) iter.Seq2[model.Index, model.Index] {
	return func(yield func(model.Index, model.Index) bool) {
		if n < 2 || w.Validate() != nil {
			return
		}
		perm := rand.New(rand.NewSource(w.Seed)).Perm(n)
		anchors := min(w.SampleSize, n)
		for p := 0; p < anchors; p++ {
			end := min(p+w.Window, n)
			for q := p + 1; q < end; q++ {
				if !yield(model.Index(perm[p]), model.Index(perm[q])) {
					return
				}
			}
		}
	}
}

// Count returns the number of pairs Pairs yields.
func (w WindowedSample) Count(n int) int {
	if n < 2 || w.Validate() != nil {
		return 0
	}
	total := 0
	for p := 0; p < min(w.SampleSize, n); p++ {
		total += min(w.Window-1, n-1-p)
	}
	return total
}

func (w WindowedSample) String() string {
	return fmt.Sprintf("windowed(sample=%d, window=%d, seed=%d)", w.SampleSize, w.Window, w.Seed)
}

// ParseUniverse builds a Universe from configuration values.
// policy is "exhaustive" (or empty) or "windowed".
func ParseUniverse(policy string, sampleSize, window int, seed int64) (Universe, error) {
	switch strings.ToLower(policy) {
	case "", "exhaustive", "all":
		return Exhaustive{}, nil
	case "windowed", "windowed-sample", "sample":
		w := WindowedSample{SampleSize: sampleSize, Window: window, Seed: seed}
		if err := w.Validate(); err != nil {
			return nil, err
		}
		return w, nil
	default:
		return nil, fmt.Errorf("%w: unknown policy %q", ErrInvalidUniverse, policy)
	}
}
