package valuation

import (
	"context"
	"sync"
)

// parallelMap applies fn to every item with at most workers calls in flight
// and returns the results in item order.
func parallelMap[T, R any](ctx context.Context, workers int, items []T, fn func(context.Context, T) R) []R {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}
	if workers <= 0 {
		workers = 1
	}

	semaphore := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			results[i] = fn(ctx, item)
		}(i, item)
	}
	wg.Wait()
	return results
}
