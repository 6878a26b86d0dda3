// Package worker provides a bounded fan-out/fan-in pool that keeps results in
// input order. The scan orchestrator runs one task folder per item.
package worker

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Result pairs a processed value with its original index to preserve ordering.
// Done is false for items that were never started because the batch stopped.
type Result[T any] struct {
	Index int
	Value T
	Err   error
	Done  bool
}

// Pool fans out work items to a bounded number of goroutines and collects
// results preserving the original input order.
type Pool[T any] struct {
	concurrency int
}

// NewPool creates a worker pool with the given concurrency.
// If concurrency <= 0, defaults to GOMAXPROCS.
func NewPool[T any](concurrency int) *Pool[T] {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &Pool[T]{concurrency: concurrency}
}

// Concurrency is the maximum number of items processed at once.
func (p *Pool[T]) Concurrency() int { return p.concurrency }

// Process applies fn to each item and returns one result per item in input
// order. The first error returned by fn stops dispatching, cancels the
// context passed to in-flight calls and is returned. The value returned
// alongside that error is still recorded. Items never started are left with
// Done unset.
func (p *Pool[T]) Process(ctx context.Context, items []string, fn func(context.Context, string) (T, error)) ([]Result[T], error) {
	if len(items) == 0 {
		return nil, ctx.Err()
	}

	results := make([]Result[T], len(items))
	for i := range results {
		results[i].Index = i
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(p.concurrency, len(items)))

	for i, item := range items {
		// Go blocks while the pool is full, so this sees a failure from any
		// item that finished in the meantime.
		if gctx.Err() != nil {
			break
		}
		i, item := i, item
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			val, err := fn(gctx, item)
			results[i] = Result[T]{Index: i, Value: val, Err: err, Done: true}
			return err
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return results, err
}
