package classifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mklyu/MatrixClassifier/dataset"
	"github.com/mklyu/MatrixClassifier/distance"
	"github.com/mklyu/MatrixClassifier/persistence"
	"github.com/mklyu/MatrixClassifier/precompute"
)

// Config is the file form of every Classifier option.
//
// Example classifier.yaml:
//
//	norm_type: frobenius
//	k: 3
//	max_iterations: 10
//	dataset:
//	  dir: ./cifar-10-batches-bin
//	  trim_first: 500
//	cache:
//	  path: ./distance_cache.bin
//	  compression: zstd
//	store:
//	  kind: minio
//	  endpoint: localhost:9000
//	  bucket: caches
//	  access_key: ${MINIO_ACCESS_KEY}
//	  secret_key: ${MINIO_SECRET_KEY}
//	log:
//	  level: debug
//	  format: json
type Config struct {
	NormType      string         `yaml:"norm_type"`
	K             int            `yaml:"k"`
	MaxIterations int            `yaml:"max_iterations"`
	Workers       int            `yaml:"workers"`
	Seed          int64          `yaml:"seed"`
	Dataset       DatasetConfig  `yaml:"dataset"`
	Universe      UniverseConfig `yaml:"universe"`
	Cache         CacheConfig    `yaml:"cache"`
	Store         StoreConfig    `yaml:"store"`
	Log           LogConfig      `yaml:"log"`
}

// DatasetConfig selects the CIFAR-10 batches to load.
type DatasetConfig struct {
	Dir       string   `yaml:"dir"`
	Batches   []string `yaml:"batches"`
	TrimFirst int      `yaml:"trim_first"`
}

// UniverseConfig selects the pairs Precompute fills.
type UniverseConfig struct {
	// Policy is "exhaustive" or "windowed".
	Policy     string `yaml:"policy"`
	SampleSize int    `yaml:"sample_size"`
	Window     int    `yaml:"window"`
}

// CacheConfig controls cache persistence and its resource budget.
type CacheConfig struct {
	// Path is the local cache file, used when no store is configured.
	Path               string `yaml:"path"`
	Compression        string `yaml:"compression"`
	MemoryLimitBytes   int64  `yaml:"memory_limit_bytes"`
	IOLimitBytesPerSec int64  `yaml:"io_limit_bytes_per_sec"`
}

// StoreConfig selects a blob store for the cache.
// An empty Kind keeps the cache in the local file Cache.Path.
type StoreConfig struct {
	// Kind is one of "local", "s3", "minio" or "sqlite".
	Kind string `yaml:"kind"`
	// Name is the blob name. Defaults to DefaultCacheName.
	Name string `yaml:"name"`
	// Path is the root directory for "local" and the database file for "sqlite".
	Path      string `yaml:"path"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// LogConfig controls the logger built by Config.Logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		NormType:      distance.NormFrobenius.String(),
		K:             3,
		MaxIterations: 10,
		Dataset:       DatasetConfig{Dir: "./cifar-10-batches-bin"},
		Universe:      UniverseConfig{Policy: "exhaustive"},
		Cache: CacheConfig{
			Path:        "./" + DefaultCacheName,
			Compression: persistence.CompressionNone.String(),
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig and validates it.
// ${VAR} references are expanded from the environment.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	cfg, err := ParseConfig(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML from r on top of DefaultConfig and validates it.
// Unknown keys are rejected.
func ParseConfig(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(strings.NewReader(os.ExpandEnv(string(data))))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, configError("yaml", "decode failed", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if _, err := distance.ParseNormType(c.NormType); err != nil {
		return configError("norm_type", c.NormType, err)
	}
	if c.K < 1 {
		return configError("k", fmt.Sprintf("%d must be >= 1", c.K), ErrInvalidK)
	}
	if c.MaxIterations < 0 {
		return configError("max_iterations", fmt.Sprintf("%d must be >= 0", c.MaxIterations), nil)
	}
	if c.Workers < 0 {
		return configError("workers", fmt.Sprintf("%d must be >= 0", c.Workers), nil)
	}
	if c.Dataset.TrimFirst < 0 {
		return configError("dataset.trim_first", fmt.Sprintf("%d must be >= 0", c.Dataset.TrimFirst), nil)
	}
	if _, err := c.universe(); err != nil {
		return configError("universe", c.Universe.Policy, err)
	}
	if _, err := persistence.ParseCompression(c.Cache.Compression); err != nil {
		return configError("cache.compression", c.Cache.Compression, err)
	}
	if c.Cache.MemoryLimitBytes < 0 {
		return configError("cache.memory_limit_bytes", "must be >= 0", nil)
	}
	if c.Cache.IOLimitBytesPerSec < 0 {
		return configError("cache.io_limit_bytes_per_sec", "must be >= 0", nil)
	}
	if err := c.Store.validate(); err != nil {
		return err
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return configError("log.format", c.Log.Format+` must be "text" or "json"`, nil)
	}
	return nil
}

func (s StoreConfig) validate() error {
	switch s.Kind {
	case "":
		return nil
	case "local", "sqlite":
		if s.Path == "" {
			return configError("store.path", "required for kind "+s.Kind, nil)
		}
	case "s3":
		if s.Bucket == "" {
			return configError("store.bucket", "required for kind s3", nil)
		}
	case "minio":
		if s.Bucket == "" {
			return configError("store.bucket", "required for kind minio", nil)
		}
		if s.Endpoint == "" {
			return configError("store.endpoint", "required for kind minio", nil)
		}
	default:
		return configError("store.kind", fmt.Sprintf("unknown kind %q", s.Kind), nil)
	}
	return nil
}

func (c Config) universe() (precompute.Universe, error) {
	return precompute.ParseUniverse(c.Universe.Policy, c.Universe.SampleSize, c.Universe.Window, c.Seed)
}

// Logger builds the logger described by c.Log, writing to w.
func (c Config) Logger(w io.Writer) (*Logger, error) {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	return newLogger(w, c.Log.Format, level), nil
}

// LoadDataset loads the CIFAR-10 batches named by c.Dataset.
func (c Config) LoadDataset() (*dataset.Collection, error) {
	return dataset.LoadCIFAR10(c.Dataset.Dir, dataset.CIFAROptions{
		Batches:   c.Dataset.Batches,
		TrimFirst: c.Dataset.TrimFirst,
	})
}

// Options converts c into Classifier options. When a store is configured it
// is opened here and closed by Classifier.Close.
func (c Config) Options(ctx context.Context) ([]Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	normType, _ := distance.ParseNormType(c.NormType)
	universe, _ := c.universe()
	compression, _ := persistence.ParseCompression(c.Cache.Compression)

	opts := []Option{
		WithNormType(normType),
		WithK(c.K),
		WithMaxIterations(c.MaxIterations),
		WithSeed(c.Seed),
		WithWorkers(c.Workers),
		WithUniverse(universe),
		WithCompression(compression),
		WithMemoryLimit(c.Cache.MemoryLimitBytes),
		WithIOLimit(c.Cache.IOLimitBytesPerSec),
	}

	if c.Store.Kind == "" {
		return append(opts, WithCachePath(c.Cache.Path)), nil
	}
	store, err := OpenStore(ctx, c.Store)
	if err != nil {
		return nil, err
	}
	return append(opts, withOwnedStore(store, c.Store.Name)), nil
}
