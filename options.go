package classifier

import (
	"io"
	"runtime"

	"github.com/mklyu/MatrixClassifier/blobstore"
	"github.com/mklyu/MatrixClassifier/codec"
	"github.com/mklyu/MatrixClassifier/distance"
	"github.com/mklyu/MatrixClassifier/kmedoids"
	"github.com/mklyu/MatrixClassifier/model"
	"github.com/mklyu/MatrixClassifier/persistence"
	"github.com/mklyu/MatrixClassifier/precompute"
)

// DefaultCacheName is the blob name used when WithStore is given an empty name.
const DefaultCacheName = "distance_cache.bin"

type options struct {
	normType       distance.NormType
	metric         distance.Metric
	k              int
	maxIterations  int
	seed           int64
	workers        int
	universe       precompute.Universe
	initialMedoids []model.Index
	logger         *Logger
	metrics        MetricsCollector
	codec          codec.Codec
	cachePath      string
	store          blobstore.Store
	cacheName      string
	compression    persistence.CompressionType
	memoryLimit    int64
	ioLimit        int64
	closers        []io.Closer
}

// Option configures a Classifier.
type Option func(*options)

func defaultOptions() options {
	return options{
		normType:      distance.NormFrobenius,
		k:             3,
		maxIterations: kmedoids.DefaultMaxIterations,
		workers:       runtime.GOMAXPROCS(0),
		universe:      precompute.Exhaustive{},
		logger:        NoopLogger(),
		metrics:       NoopMetricsCollector{},
		codec:         codec.Default,
		cacheName:     DefaultCacheName,
		compression:   persistence.CompressionNone,
	}
}

// WithNormType selects the built-in metric. Defaults to Frobenius.
func WithNormType(n distance.NormType) Option {
	return func(o *options) {
		o.normType = n
	}
}

// WithMetric uses m instead of a built-in metric. It takes precedence over
// WithNormType.
func WithMetric(m distance.Metric) Option {
	return func(o *options) {
		o.metric = m
	}
}

// WithK sets the number of clusters. Defaults to 3.
func WithK(k int) Option {
	return func(o *options) {
		o.k = k
	}
}

// WithMaxIterations caps the assign/update iterations of Cluster.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.maxIterations = n
	}
}

// WithSeed seeds the choice of initial medoids.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithWorkers sets the parallelism of precompute and clustering.
// Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithUniverse selects which pairs Precompute fills. Defaults to all pairs.
func WithUniverse(u precompute.Universe) Option {
	return func(o *options) {
		if u != nil {
			o.universe = u
		}
	}
}

// WithInitialMedoids fixes the starting medoids of Cluster instead of
// drawing them from the seed.
func WithInitialMedoids(medoids ...model.Index) Option {
	return func(o *options) {
		o.initialMedoids = medoids
	}
}

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector.
// If nil is passed, NoopMetricsCollector is used.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithCodec configures the codec used by Classifier.Encode.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCachePath persists the distance cache to a local file.
func WithCachePath(path string) Option {
	return func(o *options) {
		o.cachePath = path
	}
}

// WithStore persists the distance cache as the blob name in store.
// It takes precedence over WithCachePath.
func WithStore(store blobstore.Store, name string) Option {
	return func(o *options) {
		o.store = store
		if name != "" {
			o.cacheName = name
		}
	}
}

// WithCompression sets the payload compression of saved caches.
func WithCompression(ct persistence.CompressionType) Option {
	return func(o *options) {
		o.compression = ct
	}
}

// WithMemoryLimit bounds the memory held by cached distances.
// 0 means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithIOLimit throttles cache persistence to bytesPerSec. 0 means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}
