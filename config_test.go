package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mklyu/MatrixClassifier/blobstore"
	"github.com/mklyu/MatrixClassifier/precompute"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "frobenius", cfg.NormType)
	assert.Equal(t, 3, cfg.K)
	assert.Equal(t, 10, cfg.MaxIterations)
}

func TestParseConfig(t *testing.T) {
	t.Setenv("CACHE_BUCKET", "distances")

	cfg, err := ParseConfig(strings.NewReader(`
norm_type: l2
k: 5
max_iterations: 20
workers: 2
seed: 99
dataset:
  dir: /data/cifar
  batches: [data_batch_1.bin, data_batch_2.bin]
  trim_first: 500
universe:
  policy: windowed
  sample_size: 100
  window: 8
cache:
  compression: zstd
  memory_limit_bytes: 1048576
store:
  kind: s3
  bucket: ${CACHE_BUCKET}
  prefix: runs/
log:
  level: debug
  format: json
`))
	require.NoError(t, err)

	assert.Equal(t, "l2", cfg.NormType)
	assert.Equal(t, 5, cfg.K)
	assert.Equal(t, 20, cfg.MaxIterations)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, int64(99), cfg.Seed)
	assert.Equal(t, []string{"data_batch_1.bin", "data_batch_2.bin"}, cfg.Dataset.Batches)
	assert.Equal(t, 500, cfg.Dataset.TrimFirst)
	assert.Equal(t, "distances", cfg.Store.Bucket)
	assert.Equal(t, int64(1<<20), cfg.Cache.MemoryLimitBytes)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, DefaultConfig().Cache.Path, cfg.Cache.Path)

	u, err := cfg.universe()
	require.NoError(t, err)
	assert.Equal(t, precompute.WindowedSample{SampleSize: 100, Window: 8, Seed: 99}, u)
}

func TestParseConfig_Empty(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseConfig_UnknownKey(t *testing.T) {
	_, err := ParseConfig(strings.NewReader("kay: 3\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "classifier.yaml")
	require.NoError(t, os.WriteFile(path, []byte("k: 4\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.K)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(path, []byte("k: 0\n"), 0o644))
	_, err = LoadConfig(path)
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"norm type", func(c *Config) { c.NormType = "manhattan" }, "norm_type"},
		{"k", func(c *Config) { c.K = 0 }, "k"},
		{"max iterations", func(c *Config) { c.MaxIterations = -1 }, "max_iterations"},
		{"workers", func(c *Config) { c.Workers = -1 }, "workers"},
		{"trim first", func(c *Config) { c.Dataset.TrimFirst = -5 }, "dataset.trim_first"},
		{"universe policy", func(c *Config) { c.Universe.Policy = "random" }, "universe"},
		{"universe window", func(c *Config) {
			c.Universe = UniverseConfig{Policy: "windowed", SampleSize: 10, Window: 1}
		}, "universe"},
		{"compression", func(c *Config) { c.Cache.Compression = "gzip" }, "cache.compression"},
		{"memory limit", func(c *Config) { c.Cache.MemoryLimitBytes = -1 }, "cache.memory_limit_bytes"},
		{"io limit", func(c *Config) { c.Cache.IOLimitBytesPerSec = -1 }, "cache.io_limit_bytes_per_sec"},
		{"store kind", func(c *Config) { c.Store.Kind = "ftp" }, "store.kind"},
		{"local path", func(c *Config) { c.Store.Kind = "local" }, "store.path"},
		{"sqlite path", func(c *Config) { c.Store.Kind = "sqlite" }, "store.path"},
		{"s3 bucket", func(c *Config) { c.Store.Kind = "s3" }, "store.bucket"},
		{"minio endpoint", func(c *Config) {
			c.Store = StoreConfig{Kind: "minio", Bucket: "b"}
		}, "store.endpoint"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)

			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestConfig_Options(t *testing.T) {
	ctx := context.Background()
	ds := groups(t)

	t.Run("cache file", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Cache.Path = filepath.Join(t.TempDir(), "cache.bin")
		cfg.Cache.Compression = "lz4"

		opts, err := cfg.Options(ctx)
		require.NoError(t, err)
		c, err := New(ds, opts...)
		require.NoError(t, err)
		defer c.Close()

		_, err = c.Precompute(ctx)
		require.NoError(t, err)
		assert.FileExists(t, cfg.Cache.Path)
	})

	t.Run("local store", func(t *testing.T) {
		root := t.TempDir()
		cfg := DefaultConfig()
		cfg.Store = StoreConfig{Kind: "local", Path: root, Name: "runs/cache.bin"}

		opts, err := cfg.Options(ctx)
		require.NoError(t, err)
		c, err := New(ds, opts...)
		require.NoError(t, err)
		defer c.Close()

		_, err = c.Precompute(ctx)
		require.NoError(t, err)
		names, err := blobstore.NewLocalStore(root).List(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"runs/cache.bin"}, names)
	})

	t.Run("sqlite store", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Store = StoreConfig{Kind: "sqlite", Path: filepath.Join(t.TempDir(), "caches.db")}

		opts, err := cfg.Options(ctx)
		require.NoError(t, err)
		c, err := New(ds, opts...)
		require.NoError(t, err)

		_, err = c.Precompute(ctx)
		require.NoError(t, err)
		require.NoError(t, c.Close())

		// Reopen: the blob survived and loads into a fresh classifier.
		opts, err = cfg.Options(ctx)
		require.NoError(t, err)
		again, err := New(ds, opts...)
		require.NoError(t, err)
		defer again.Close()
		ok, err := again.LoadCache(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, allPairs(ds.Len()), again.Cache().Len())
	})

	t.Run("invalid", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.K = -1
		_, err := cfg.Options(ctx)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestConfig_Logger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log = LogConfig{Level: "warn", Format: "json"}

	var buf bytes.Buffer
	logger, err := cfg.Logger(&buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "k", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, float64(3), rec["k"])
}

func TestOpenStore_Unconfigured(t *testing.T) {
	_, err := OpenStore(context.Background(), StoreConfig{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
