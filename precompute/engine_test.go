package precompute

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mklyu/MatrixClassifier/blobstore"
	"github.com/mklyu/MatrixClassifier/cache"
	"github.com/mklyu/MatrixClassifier/distance"
	"github.com/mklyu/MatrixClassifier/model"
	"github.com/mklyu/MatrixClassifier/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Exhaustive(t *testing.T) {
	for _, n := range []int{2, 7, 40} {
		ds := testutil.NewRNG(1).UniformCollection(n, model.Shape{3, 2})
		c := cache.New(distance.Frobenius{})

		stats, err := New(ds, c, WithWorkers(4)).Run(context.Background(), Exhaustive{})
		require.NoError(t, err)
		assert.Equal(t, n*(n-1)/2, c.Len())
		assert.Equal(t, n*(n-1)/2, stats.Pairs)
		assert.Equal(t, int64(n*(n-1)/2), stats.Computed)
		assert.Zero(t, stats.Failed)
	}
}

func TestRun_Empty(t *testing.T) {
	persisted := false
	c := cache.New(distance.L2{})
	e := New(testutil.SliceDataset{}, c, WithPersist(func(context.Context, *cache.DistanceCache) error {
		persisted = true
		return nil
	}))

	stats, err := e.Run(context.Background(), Exhaustive{})
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
	assert.False(t, persisted)
}

func TestRun_RerunComputesNothing(t *testing.T) {
	ds := testutil.NewRNG(2).UniformCollection(15, model.Shape{4})
	m := testutil.NewCountingMetric(nil)
	c := cache.New(m)
	e := New(ds, c, WithWorkers(3))

	_, err := e.Run(context.Background(), Exhaustive{})
	require.NoError(t, err)
	calls := m.Calls()
	assert.Equal(t, int64(15*14/2), calls)

	stats, err := e.Run(context.Background(), Exhaustive{})
	require.NoError(t, err)
	assert.Equal(t, calls, m.Calls())
	assert.Zero(t, stats.Computed)
	assert.Equal(t, int64(15*14/2), stats.Hits)
}

func TestRun_Idempotent(t *testing.T) {
	ds := testutil.NewRNG(3).UniformCollection(30, model.Shape{2, 3})
	u := WindowedSample{SampleSize: 20, Window: 5, Seed: 99}

	run := func() []byte {
		c := cache.New(distance.Frobenius{})
		_, err := New(ds, c, WithWorkers(8)).Run(context.Background(), u)
		require.NoError(t, err)
		data, err := c.Bytes()
		require.NoError(t, err)
		return data
	}
	assert.Equal(t, run(), run())
}

func TestRun_FailTogether(t *testing.T) {
	good := model.Item{Shape: model.Shape{2}, Data: []float32{1, 2}}
	bad := model.Item{Shape: model.Shape{3}, Data: []float32{1, 2, 3}}
	ds := testutil.SliceDataset{good, good, bad, good, good}

	var persistedEntries int
	c := cache.New(distance.L2{})
	e := New(ds, c, WithWorkers(2), WithPersist(func(_ context.Context, c *cache.DistanceCache) error {
		persistedEntries = c.Len()
		return nil
	}))

	stats, err := e.Run(context.Background(), Exhaustive{})
	require.Error(t, err)
	assert.ErrorIs(t, err, distance.ErrShapeMismatch)

	var summary *FailureSummary
	require.ErrorAs(t, err, &summary)
	assert.Equal(t, 4, summary.Failed)
	assert.Equal(t, 10, summary.Pairs)

	// Every pair not involving the bad item still completed.
	assert.Equal(t, 4, stats.Failed)
	assert.Equal(t, 6, c.Len())
	assert.Equal(t, 6, persistedEntries)
}

func TestRun_ManyFailuresTruncated(t *testing.T) {
	items := make(testutil.SliceDataset, 12)
	for i := range items {
		items[i] = model.Item{Shape: model.Shape{i + 1}, Data: make([]float32, i+1)}
	}
	c := cache.New(distance.L2{})

	stats, err := New(items, c).Run(context.Background(), Exhaustive{})
	require.Error(t, err)
	assert.Equal(t, 66, stats.Failed)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	assert.Len(t, joined.Unwrap(), maxReportedErrors+1)
}

func TestRun_PersistFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.mdc")
	ds := testutil.NewRNG(4).UniformCollection(10, model.Shape{3})
	c := cache.New(distance.L2{})

	_, err := New(ds, c, WithPersistFile(path)).Run(context.Background(), Exhaustive{})
	require.NoError(t, err)

	restored := cache.New(distance.L2{})
	require.NoError(t, restored.Load(path))
	assert.Equal(t, c.Entries(), restored.Entries())
}

func TestRun_PersistStore(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	ds := testutil.NewRNG(5).UniformCollection(8, model.Shape{3})
	c := cache.New(distance.L2{})

	_, err := New(ds, c, WithPersistStore(store, "c.mdc")).Run(ctx, Exhaustive{})
	require.NoError(t, err)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"c.mdc"}, names)
}

func TestRun_PersistError(t *testing.T) {
	ds := testutil.NewRNG(6).UniformCollection(4, model.Shape{2})
	c := cache.New(distance.L2{})
	errBoom := errors.New("boom")

	_, err := New(ds, c, WithPersist(func(context.Context, *cache.DistanceCache) error {
		return errBoom
	})).Run(context.Background(), Exhaustive{})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 6, c.Len())
}

func TestRun_Cancelled(t *testing.T) {
	ds := testutil.NewRNG(7).UniformCollection(20, model.Shape{2})
	c := cache.New(distance.L2{})
	persisted := false

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := New(ds, c, WithPersist(func(context.Context, *cache.DistanceCache) error {
		persisted = true
		return nil
	})).Run(ctx, Exhaustive{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.Pairs)
	assert.False(t, persisted)
}

func TestRun_InvalidUniverse(t *testing.T) {
	ds := testutil.NewRNG(8).UniformCollection(4, model.Shape{2})
	_, err := New(ds, cache.New(distance.L2{})).Run(context.Background(), WindowedSample{SampleSize: 2, Window: 1})
	assert.ErrorIs(t, err, ErrInvalidUniverse)
}

func TestWithWorkers(t *testing.T) {
	e := New(testutil.SliceDataset{}, cache.New(distance.L2{}), WithWorkers(0))
	assert.Positive(t, e.Workers())
	e = New(testutil.SliceDataset{}, cache.New(distance.L2{}), WithWorkers(3))
	assert.Equal(t, 3, e.Workers())
}
