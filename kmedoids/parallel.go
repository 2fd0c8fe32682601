package kmedoids

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// parallelFor splits [0, n) into at most workers contiguous chunks and runs
// fn on each. With one worker fn runs inline on the whole range.
func parallelFor(ctx context.Context, workers, n int, fn func(ctx context.Context, start, end int) error) error {
	if n == 0 {
		return nil
	}
	if workers <= 1 || n == 1 {
		return fn(ctx, 0, n)
	}
	workers = min(workers, n)

	g, ctx := errgroup.WithContext(ctx)
	q := n / workers
	r := n % workers

	start := 0
	for i := 0; i < workers; i++ {
		size := q
		if i < r {
			size++
		}
		end := start + size
		curStart, curEnd := start, end
		g.Go(func() error {
			return fn(ctx, curStart, curEnd)
		})
		start = end
	}
	return g.Wait()
}
