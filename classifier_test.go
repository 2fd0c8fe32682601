package classifier

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/mklyu/MatrixClassifier/blobstore"
	"github.com/mklyu/MatrixClassifier/codec"
	"github.com/mklyu/MatrixClassifier/dataset"
	"github.com/mklyu/MatrixClassifier/distance"
	"github.com/mklyu/MatrixClassifier/kmedoids"
	"github.com/mklyu/MatrixClassifier/model"
	"github.com/mklyu/MatrixClassifier/persistence"
	"github.com/mklyu/MatrixClassifier/precompute"
	"github.com/mklyu/MatrixClassifier/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const perGroup = 8

func groups(t *testing.T) *dataset.Collection {
	t.Helper()
	ds, _ := testutil.NewRNG(3).SeparatedGroups(3, perGroup, model.Shape{3, 4, 4}, 50, 1)
	return ds
}

func allPairs(n int) int { return n * (n - 1) / 2 }

func TestNew(t *testing.T) {
	t.Run("nil dataset", func(t *testing.T) {
		_, err := New(nil)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("unsupported norm type", func(t *testing.T) {
		_, err := New(groups(t), WithNormType(distance.NormType(42)))
		assert.ErrorIs(t, err, ErrUnsupportedVariant)
	})

	t.Run("negative limits", func(t *testing.T) {
		_, err := New(groups(t), WithMemoryLimit(-1))
		assert.ErrorIs(t, err, ErrInvalidConfig)
		_, err = New(groups(t), WithIOLimit(-1))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("defaults", func(t *testing.T) {
		c, err := New(groups(t))
		require.NoError(t, err)
		assert.False(t, c.Persistent())
		assert.Equal(t, codec.Default, c.Codec())
		assert.Zero(t, c.Cache().Len())
	})
}

func TestPrecomputeAndCluster(t *testing.T) {
	ctx := context.Background()
	ds := groups(t)
	n := ds.Len()
	path := filepath.Join(t.TempDir(), "cache.bin")
	mc := &BasicMetricsCollector{}

	c, err := New(ds,
		WithK(3),
		WithWorkers(4),
		WithInitialMedoids(0, 1, 2),
		WithCachePath(path),
		WithMetricsCollector(mc),
	)
	require.NoError(t, err)
	require.True(t, c.Persistent())

	stats, err := c.Precompute(ctx)
	require.NoError(t, err)
	assert.Equal(t, allPairs(n), stats.Pairs)
	assert.Equal(t, int64(allPairs(n)), stats.Computed)
	assert.FileExists(t, path)

	rep, err := c.Cluster(ctx)
	require.NoError(t, err)
	assert.Equal(t, kmedoids.StateConverged.String(), rep.State)
	assert.Equal(t, "frobenius", rep.NormType)
	assert.Equal(t, n, rep.Items)
	require.Len(t, rep.Clusters, 3)
	for _, cl := range rep.Clusters {
		assert.Equal(t, perGroup, cl.Size)
		// Every cluster holds exactly one ground-truth group.
		require.Len(t, cl.Labels, 1)
		for _, count := range cl.Labels {
			assert.Equal(t, perGroup, count)
		}
	}

	// Clustering reads only cached distances.
	assert.Equal(t, int64(allPairs(n)), rep.Cache.Misses)
	assert.Positive(t, rep.Cache.Hits)
	assert.InDelta(t, 1.0, rep.Cache.Coverage, 1e-9)

	labels := rep.Labels()
	require.Len(t, labels, n)
	for i := range n {
		// Items are interleaved across groups.
		assert.Equal(t, labels[i%3], labels[i])
	}

	st := mc.GetStats()
	assert.Equal(t, int64(1), st.PrecomputeCount)
	assert.Equal(t, int64(allPairs(n)), st.PrecomputeComputed)
	assert.Equal(t, int64(1), st.PersistCount)
	assert.Equal(t, int64(allPairs(n)), st.PersistEntries)
	assert.Equal(t, int64(rep.Iterations), st.IterationCount)
}

func TestLoadCache(t *testing.T) {
	ctx := context.Background()
	ds := groups(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.bin")

	first, err := New(ds, WithCachePath(path))
	require.NoError(t, err)
	_, err = first.Precompute(ctx)
	require.NoError(t, err)

	t.Run("reuses saved distances", func(t *testing.T) {
		mc := &BasicMetricsCollector{}
		c, err := New(ds, WithCachePath(path), WithMetricsCollector(mc))
		require.NoError(t, err)
		ok, err := c.LoadCache(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, allPairs(ds.Len()), c.Cache().Len())

		stats, err := c.Precompute(ctx)
		require.NoError(t, err)
		assert.Zero(t, stats.Computed)
		assert.Equal(t, int64(allPairs(ds.Len())), stats.Hits)
		assert.Equal(t, int64(allPairs(ds.Len())), mc.GetStats().LoadEntries)
	})

	t.Run("missing file", func(t *testing.T) {
		c, err := New(ds, WithCachePath(filepath.Join(dir, "absent.bin")))
		require.NoError(t, err)
		ok, err := c.LoadCache(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("not persistent", func(t *testing.T) {
		c, err := New(ds)
		require.NoError(t, err)
		ok, err := c.LoadCache(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, c.SaveCache(ctx))
	})

	t.Run("corrupt file", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.bin")
		require.NoError(t, os.WriteFile(bad, []byte("not a cache"), 0o644))

		mc := &BasicMetricsCollector{}
		c, err := New(ds, WithCachePath(bad), WithMetricsCollector(mc))
		require.NoError(t, err)
		ok, err := c.LoadCache(ctx)
		assert.ErrorIs(t, err, ErrCorruptCache)
		assert.False(t, ok)
		assert.Zero(t, c.Cache().Len())
		assert.Equal(t, int64(1), mc.GetStats().LoadErrors)
	})
}

func TestStorePersistence(t *testing.T) {
	ctx := context.Background()
	ds := groups(t)
	store := blobstore.NewMemoryStore()

	c, err := New(ds, WithStore(store, "runs/cache.bin"), WithCompression(persistence.CompressionZSTD))
	require.NoError(t, err)
	_, err = c.Precompute(ctx)
	require.NoError(t, err)

	names, err := store.List(ctx, "runs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"runs/cache.bin"}, names)

	again, err := New(ds, WithStore(store, "runs/cache.bin"))
	require.NoError(t, err)
	ok, err := again.LoadCache(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, c.Cache().Entries(), again.Cache().Entries())
}

func TestPrecompute_Universe(t *testing.T) {
	ds := groups(t)
	u := precompute.WindowedSample{SampleSize: 5, Window: 3, Seed: 9}

	c, err := New(ds, WithUniverse(u))
	require.NoError(t, err)
	stats, err := c.Precompute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, u.Count(ds.Len()), stats.Pairs)
	assert.Equal(t, u.Count(ds.Len()), c.Cache().Len())

	rep := c.PrecomputeReport(stats)
	assert.Equal(t, u.String(), rep.Universe)
	assert.Equal(t, ds.Len(), rep.Items)
	assert.Less(t, rep.Cache.Coverage, 1.0)
}

func TestPrecompute_MetricError(t *testing.T) {
	boom := errors.New("boom")
	metric := distance.Func(func(a, b model.Item) (float32, error) {
		return 0, boom
	})
	mc := &BasicMetricsCollector{}

	c, err := New(groups(t), WithMetric(metric), WithMetricsCollector(mc))
	require.NoError(t, err)
	stats, err := c.Precompute(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, stats.Pairs, stats.Failed)

	st := mc.GetStats()
	assert.Equal(t, int64(1), st.PrecomputeErrors)
	assert.Equal(t, int64(stats.Failed), st.PrecomputeFailed)
}

func TestPrecompute_InvalidDistanceNotCached(t *testing.T) {
	metric := distance.Func(func(a, b model.Item) (float32, error) {
		return float32(math.NaN()), nil
	})

	c, err := New(groups(t), WithMetric(metric))
	require.NoError(t, err)
	stats, err := c.Precompute(context.Background())
	require.ErrorIs(t, err, ErrInvalidDistance)
	assert.Equal(t, stats.Pairs, stats.Failed)
	assert.Zero(t, c.Cache().Len())
}

func TestCluster_Empty(t *testing.T) {
	c, err := New(testutil.SliceDataset{}, WithCachePath(filepath.Join(t.TempDir(), "c.bin")))
	require.NoError(t, err)

	stats, err := c.Precompute(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Pairs)

	rep, err := c.Cluster(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rep.Items)
	assert.Empty(t, rep.Clusters)
	assert.Equal(t, kmedoids.StateInitialized.String(), rep.State)
}

func TestCluster_Errors(t *testing.T) {
	ds := groups(t)

	tests := []struct {
		name string
		opts []Option
		want error
	}{
		{"k too large", []Option{WithK(ds.Len() + 1)}, ErrInvalidK},
		{"k zero", []Option{WithK(0)}, ErrInvalidK},
		{"negative iterations", []Option{WithMaxIterations(-1)}, ErrInvalidConfig},
		{"duplicate medoids", []Option{WithInitialMedoids(1, 1, 2)}, ErrInvalidConfig},
		{"medoid out of range", []Option{WithInitialMedoids(1, 2, model.Index(ds.Len()))}, ErrIndexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(ds, tt.opts...)
			require.NoError(t, err)
			_, err = c.Cluster(context.Background())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCluster_Exhausted(t *testing.T) {
	c, err := New(groups(t), WithMaxIterations(0), WithSeed(5))
	require.NoError(t, err)
	rep, err := c.Cluster(context.Background())
	require.NoError(t, err)
	assert.Equal(t, kmedoids.StateExhausted.String(), rep.State)
	assert.Zero(t, rep.Iterations)
	assert.Len(t, rep.Clusters, 3)
}

type closingStore struct {
	*blobstore.MemoryStore
	closed int
}

func (s *closingStore) Close() error {
	s.closed++
	return nil
}

func TestClose(t *testing.T) {
	store := &closingStore{MemoryStore: blobstore.NewMemoryStore()}
	c, err := New(groups(t), withOwnedStore(store, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultCacheName, c.cacheLocation())

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 1, store.closed)

	_, err = c.Precompute(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	_, err = c.Cluster(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	_, err = c.LoadCache(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, c.SaveCache(context.Background()), ErrClosed)

	// A store passed by the caller stays open.
	user := &closingStore{MemoryStore: blobstore.NewMemoryStore()}
	c, err = New(groups(t), WithStore(user, ""))
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assert.Zero(t, user.closed)
}

func TestEncode(t *testing.T) {
	ctx := context.Background()
	for _, name := range codec.Names() {
		t.Run(name, func(t *testing.T) {
			cd, ok := codec.ByName(name)
			require.True(t, ok)

			c, err := New(groups(t), WithCodec(cd), WithInitialMedoids(0, 1, 2))
			require.NoError(t, err)
			rep, err := c.Cluster(ctx)
			require.NoError(t, err)

			data, err := c.Encode(rep)
			require.NoError(t, err)
			var got Report
			require.NoError(t, cd.Unmarshal(data, &got))
			assert.Equal(t, rep.Labels(), got.Labels())
			assert.Equal(t, rep.State, got.State)
		})
	}
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))

	err := translateError(kmedoids.ErrInvalidConfig)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, kmedoids.ErrInvalidConfig)

	other := errors.New("other")
	assert.Equal(t, other, translateError(other))

	var ce *ConfigError
	require.ErrorAs(t, configError("k", "bad", ErrInvalidK), &ce)
	assert.Equal(t, "k", ce.Field)
	assert.ErrorIs(t, ce, ErrInvalidK)
	assert.ErrorIs(t, ce, ErrInvalidConfig)
}
