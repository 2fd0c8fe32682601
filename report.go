package classifier

import (
	"time"

	"github.com/mklyu/MatrixClassifier/kmedoids"
	"github.com/mklyu/MatrixClassifier/model"
	"github.com/mklyu/MatrixClassifier/precompute"
)

// Labeler is implemented by datasets that carry a ground-truth label per item.
type Labeler interface {
	Label(i model.Index) (int, error)
}

// Report is the outcome of Cluster in an encodable form.
type Report struct {
	NormType   string          `json:"norm_type"`
	Items      int             `json:"items"`
	K          int             `json:"k"`
	State      string          `json:"state"`
	Iterations int             `json:"iterations"`
	Cost       float64         `json:"cost"`
	DurationMS int64           `json:"duration_ms"`
	Clusters   []ClusterReport `json:"clusters"`
	Cache      CacheReport     `json:"cache"`
}

// Labels returns the cluster slot of every item.
func (r *Report) Labels() []int {
	out := make([]int, r.Items)
	for slot, cl := range r.Clusters {
		for _, m := range cl.Members {
			out[m] = slot
		}
	}
	return out
}

// ClusterReport describes one cluster.
type ClusterReport struct {
	Medoid  int   `json:"medoid"`
	Size    int   `json:"size"`
	Members []int `json:"members"`
	// Labels counts members per ground-truth label, when the dataset has labels.
	Labels map[int]int `json:"labels,omitempty"`
}

// CacheReport summarizes the distance cache.
type CacheReport struct {
	Entries  int     `json:"entries"`
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRate  float64 `json:"hit_rate"`
	Coverage float64 `json:"coverage"`
	// MemoryBytes is the memory charged for cached distances.
	MemoryBytes int64 `json:"memory_bytes"`
}

// PrecomputeReport is the outcome of Precompute in an encodable form.
type PrecomputeReport struct {
	Universe   string      `json:"universe"`
	Items      int         `json:"items"`
	Pairs      int         `json:"pairs"`
	Computed   int64       `json:"computed"`
	Hits       int64       `json:"hits"`
	Failed     int         `json:"failed"`
	DurationMS int64       `json:"duration_ms"`
	Cache      CacheReport `json:"cache"`
}

// CacheReport summarizes the current cache. Coverage is the share of all
// distinct pairs of the dataset that are cached.
func (c *Classifier) CacheReport() CacheReport {
	st := c.cache.Stats()
	n := c.ds.Len()
	var coverage float64
	if all := n * (n - 1) / 2; all > 0 {
		coverage = float64(st.Entries) / float64(all)
	}
	return CacheReport{
		Entries:     st.Entries,
		Hits:        st.Hits,
		Misses:      st.Misses,
		HitRate:     st.HitRate(),
		Coverage:    coverage,
		MemoryBytes: c.rc.MemoryUsage(),
	}
}

// PrecomputeReport wraps stats of a Precompute run.
func (c *Classifier) PrecomputeReport(stats precompute.Stats) PrecomputeReport {
	return PrecomputeReport{
		Universe:   c.opts.universe.String(),
		Items:      c.ds.Len(),
		Pairs:      stats.Pairs,
		Computed:   stats.Computed,
		Hits:       stats.Hits,
		Failed:     stats.Failed,
		DurationMS: stats.Duration.Milliseconds(),
		Cache:      c.CacheReport(),
	}
}

func (c *Classifier) newReport(res *kmedoids.Result, d time.Duration) (*Report, error) {
	labeler, _ := c.ds.(Labeler)

	sizes := res.Clusters.Sizes()
	clusters := make([]ClusterReport, len(res.Clusters))
	for i, cl := range res.Clusters {
		cr := ClusterReport{
			Medoid:  int(cl.Medoid),
			Size:    sizes[i],
			Members: make([]int, len(cl.Members)),
		}
		if labeler != nil {
			cr.Labels = make(map[int]int)
		}
		for j, m := range cl.Members {
			cr.Members[j] = int(m)
			if labeler == nil {
				continue
			}
			label, err := labeler.Label(m)
			if err != nil {
				return nil, err
			}
			cr.Labels[label]++
		}
		clusters[i] = cr
	}

	return &Report{
		NormType:   c.normName,
		Items:      c.ds.Len(),
		K:          len(res.Medoids),
		State:      res.State.String(),
		Iterations: res.Iterations,
		Cost:       res.Cost,
		DurationMS: d.Milliseconds(),
		Clusters:   clusters,
		Cache:      c.CacheReport(),
	}, nil
}
