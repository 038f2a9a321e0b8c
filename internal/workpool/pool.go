// Package workpool runs independent units of work on a bounded set of workers.
package workpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the concurrency used when a non-positive count is given.
const DefaultWorkers = 10

// Map applies fn to every item with at most workers calls in flight and
// returns the results in input order. Each result slot is written by exactly
// one call. fn reports failure through its result, so one unit never cancels
// the others.
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(ctx context.Context, item T) R) []R {
	results := make([]R, len(items))
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var group errgroup.Group
	group.SetLimit(workers)
	for i, item := range items {
		group.Go(func() error {
			results[i] = fn(ctx, item)
			return nil
		})
	}
	_ = group.Wait()

	return results
}
