package kmedoids

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelFor(t *testing.T) {
	for _, tc := range []struct{ workers, n int }{{1, 10}, {3, 10}, {8, 3}, {4, 0}} {
		var mu sync.Mutex
		seen := make([]int, tc.n)
		err := parallelFor(context.Background(), tc.workers, tc.n, func(_ context.Context, start, end int) error {
			mu.Lock()
			defer mu.Unlock()
			for i := start; i < end; i++ {
				seen[i]++
			}
			return nil
		})
		require.NoError(t, err)
		for i := range seen {
			assert.Equal(t, 1, seen[i], "workers=%d n=%d i=%d", tc.workers, tc.n, i)
		}
	}
}

func TestParallelFor_Error(t *testing.T) {
	errBoom := errors.New("boom")
	err := parallelFor(context.Background(), 4, 100, func(_ context.Context, start, _ int) error {
		if start == 0 {
			return errBoom
		}
		return nil
	})
	assert.ErrorIs(t, err, errBoom)
}
