package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	classifier "github.com/mklyu/MatrixClassifier"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// prometheusCollector implements classifier.MetricsCollector.
type prometheusCollector struct {
	opLatency    *prometheus.HistogramVec
	pairs        prometheus.Counter
	computed     prometheus.Counter
	failed       prometheus.Counter
	iterations   prometheus.Counter
	changed      prometheus.Counter
	cost         prometheus.Gauge
	cacheEntries prometheus.Gauge
}

var _ classifier.MetricsCollector = (*prometheusCollector)(nil)

func newPrometheusCollector(reg prometheus.Registerer) *prometheusCollector {
	p := &prometheusCollector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "matrixclassifier_operation_latency_seconds",
			Help:    "Latency of classifier operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "status"}),
		pairs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matrixclassifier_precompute_pairs_total",
			Help: "Pairs submitted by precompute runs",
		}),
		computed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matrixclassifier_precompute_computed_total",
			Help: "Distances computed (cache misses) by precompute runs",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matrixclassifier_precompute_failed_total",
			Help: "Pairs whose distance could not be computed",
		}),
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matrixclassifier_iterations_total",
			Help: "Clustering iterations completed",
		}),
		changed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matrixclassifier_medoids_changed_total",
			Help: "Medoids replaced by update steps",
		}),
		cost: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "matrixclassifier_assignment_cost",
			Help: "Total distance of the latest assignment",
		}),
		cacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "matrixclassifier_cache_entries",
			Help: "Entries in the last saved or loaded cache",
		}),
	}

	reg.MustRegister(
		p.opLatency,
		p.pairs,
		p.computed,
		p.failed,
		p.iterations,
		p.changed,
		p.cost,
		p.cacheEntries,
	)
	return p
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (p *prometheusCollector) RecordPrecompute(pairs int, computed int64, failed int, d time.Duration, err error) {
	p.opLatency.WithLabelValues("precompute", status(err)).Observe(d.Seconds())
	p.pairs.Add(float64(pairs))
	p.computed.Add(float64(computed))
	p.failed.Add(float64(failed))
}

func (p *prometheusCollector) RecordIteration(iteration, changed int, cost float64, d time.Duration) {
	p.opLatency.WithLabelValues("iteration", "success").Observe(d.Seconds())
	p.iterations.Inc()
	p.changed.Add(float64(changed))
	p.cost.Set(cost)
}

func (p *prometheusCollector) RecordCachePersist(entries int, d time.Duration, err error) {
	p.opLatency.WithLabelValues("cache_persist", status(err)).Observe(d.Seconds())
	if err == nil {
		p.cacheEntries.Set(float64(entries))
	}
}

func (p *prometheusCollector) RecordCacheLoad(entries int, d time.Duration, err error) {
	p.opLatency.WithLabelValues("cache_load", status(err)).Observe(d.Seconds())
	if err == nil {
		p.cacheEntries.Set(float64(entries))
	}
}

// serveMetrics exposes a fresh registry on addr until stop is called.
func serveMetrics(addr string, logger *classifier.Logger) (*prometheusCollector, func(), error) {
	reg := prometheus.NewRegistry()
	collector := newPrometheusCollector(reg)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return collector, stop, nil
}
