package distance

import "github.com/mklyu/MatrixClassifier/model"

// IndexedMetric is the compute-or-fetch contract: a metric that may use the
// items' collection indices (e.g. to consult a cache).
type IndexedMetric interface {
	ComputeOrFetch(a, b model.Item, ia, ib model.Index) (float32, error)
}

// Uncached adapts a Metric to IndexedMetric without any caching.
// Self-pairs (ia == ib, both indexed) are 0 without calling the metric.
func Uncached(m Metric) IndexedMetric {
	return uncached{m: m}
}

type uncached struct {
	m Metric
}

func (u uncached) ComputeOrFetch(a, b model.Item, ia, ib model.Index) (float32, error) {
	if ia != model.NoIndex && ia == ib {
		return 0, nil
	}
	return u.m.Calculate(a, b)
}
