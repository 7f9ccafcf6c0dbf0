// Package fileproc provides the bounded parallel fan-out the parsing
// stage runs on: each file is handled by a pure function on a worker
// goroutine, results flow through a bounded channel back to a single
// consumer, and per-file errors are isolated from the batch.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// DefaultWorkers is the worker count when the caller passes zero:
// the host's logical CPU count, per the engine's concurrency model.
func DefaultWorkers() int { return runtime.NumCPU() }

// BackpressureFactor sizes the result channel at factor × workers, so
// peak buffered memory scales with worker count, not input size.
const BackpressureFactor = 4

// Error records one failed item.
type Error struct {
	Path string
	Err  error
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Map processes items in parallel and collects results in arbitrary
// order. fn must be pure and thread-safe. Per-item errors are
// collected, not fatal. A cancelled context stops scheduling new
// items; in-flight items finish their current work.
func Map[T, R any](ctx context.Context, items []T, workers int, path func(T) string, fn func(T) (R, error)) ([]R, []Error) {
	var (
		results []R
		errs    []Error
	)
	Stream(ctx, items, workers, path, fn,
		func(r R) { results = append(results, r) },
		func(e Error) { errs = append(errs, e) })
	return results, errs
}

// Stream processes items on a bounded worker pool and hands each
// result to onResult from a single consumer goroutine, preserving the
// engine's single-threaded aggregation while parsing fans out. The
// channel between workers and consumer holds BackpressureFactor ×
// workers results; full means workers block, bounding memory.
func Stream[T, R any](ctx context.Context, items []T, workers int, path func(T) string, fn func(T) (R, error), onResult func(R), onError func(Error)) {
	if len(items) == 0 {
		return
	}
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	type outcome struct {
		result R
		err    *Error
	}
	ch := make(chan outcome, BackpressureFactor*workers)

	var consumer sync.WaitGroup
	consumer.Add(1)
	go func() {
		defer consumer.Done()
		for out := range ch {
			if out.err != nil {
				if onError != nil {
					onError(*out.err)
				}
				continue
			}
			if onResult != nil {
				onResult(out.result)
			}
		}
	}()

	p := pool.New().WithMaxGoroutines(workers)
	for _, item := range items {
		if ctx.Err() != nil {
			// Cancellation: stop scheduling; items already running
			// finish and drain through the consumer.
			break
		}
		p.Go(func() {
			r, err := fn(item)
			if err != nil {
				ch <- outcome{err: &Error{Path: path(item), Err: err}}
				return
			}
			ch <- outcome{result: r}
		})
	}
	p.Wait()
	close(ch)
	consumer.Wait()
}
