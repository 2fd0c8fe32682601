package kmedoids

import (
	"slices"
	"time"

	"github.com/mklyu/MatrixClassifier/distance"
	"github.com/mklyu/MatrixClassifier/model"
)

// PairMetric is the compute-or-fetch contract the clusterer reads distances through.
type PairMetric = distance.IndexedMetric

// DefaultMaxIterations is the iteration cap of DefaultConfig.
const DefaultMaxIterations = 10

// Config holds the clustering parameters.
type Config struct {
	// K is the number of clusters, 1 <= K <= N.
	K int
	// MaxIterations caps assign/update iterations. 0 means no iteration is run.
	MaxIterations int
	// Seed drives the choice of initial medoids.
	Seed int64
	// Workers is the parallelism of assign and update. 0 means 1.
	Workers int
}

// DefaultConfig returns a config with K clusters and the default iteration cap.
func DefaultConfig(k int) Config {
	return Config{K: k, MaxIterations: DefaultMaxIterations, Workers: 1}
}

// State is the clusterer's lifecycle state.
type State int

const (
	// StateInitialized means medoids are chosen and no iteration has run.
	StateInitialized State = iota
	// StateIterating means at least one iteration ran without reaching a terminal state.
	StateIterating
	// StateConverged means the last update left the medoid set unchanged.
	StateConverged
	// StateExhausted means the iteration cap was reached without convergence.
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateIterating:
		return "iterating"
	case StateConverged:
		return "converged"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further iteration will run.
func (s State) Terminal() bool {
	return s == StateConverged || s == StateExhausted
}

// Cluster is one medoid and its members in ascending index order.
// The medoid is always one of the members.
type Cluster struct {
	Medoid  model.Index
	Members []model.Index
}

// Clusters are listed in medoid-set order.
type Clusters []Cluster

// Labels returns, for each of the n items, the position of its cluster.
// Items not covered are -1.
func (cs Clusters) Labels(n int) []int {
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	for slot, c := range cs {
		for _, m := range c.Members {
			if int(m) < n {
				labels[m] = slot
			}
		}
	}
	return labels
}

// Medoids returns the medoid of each cluster.
func (cs Clusters) Medoids() []model.Index {
	out := make([]model.Index, len(cs))
	for i, c := range cs {
		out[i] = c.Medoid
	}
	return out
}

// Sizes returns the member count of each cluster.
func (cs Clusters) Sizes() []int {
	out := make([]int, len(cs))
	for i, c := range cs {
		out[i] = len(c.Members)
	}
	return out
}

// Result is the outcome of Run.
type Result struct {
	Medoids    []model.Index
	Clusters   Clusters
	Iterations int
	State      State
	// Cost is the sum of distances from every item to its medoid.
	Cost float64
}

// IterationInfo describes one completed iteration.
type IterationInfo struct {
	Iteration int
	// Changed is the number of medoids replaced by the update step.
	Changed  int
	Cost     float64
	State    State
	Duration time.Duration
}

func cloneIndices(s []model.Index) []model.Index {
	return slices.Clone(s)
}
