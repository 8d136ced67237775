// Package tabulate implements parallel tabulate (spec §4.9): given count
// and a closure, produce a count-element array with entry i =
// closure(i), work-stolen across a worker pool. Grounded in the teacher's
// mpather.Jgroup worker-pool shape (xact/xs/tcb.go: BckJog/mpather.JgroupOpts
// with a Parallel degree and per-worker Slab) generalized from "walk a
// bucket's objects" to "claim the next index"; concurrency coordination
// uses golang.org/x/sync/errgroup the way the rest of the domain stack's
// fan-out helpers do.
package tabulate

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/skiplang/skiprt/internal/ratomic"
	"github.com/skiplang/skiprt/internal/rtconfig"
)

// workerResult pairs a computed value with the index it was claimed for,
// so the master can place it correctly regardless of completion order.
type workerResult struct {
	index int
	value interface{}
}

// Tabulate computes [closure(0), ..., closure(count-1)] using up to
// rtconfig's worker count, claiming indices via a single shared atomic
// counter (spec: "a single atomic<int64> nextIndex is incremented by any
// worker to claim items"). The first error returned by any worker with
// the lowest claimed index wins; a failing worker sets nextIndex to count,
// so other in-flight workers observe nextIndex >= count (or the group's
// cancellation) and stop claiming new work.
func Tabulate(ctx context.Context, count int, closure func(i int) (interface{}, error)) ([]interface{}, error) {
	if count == 0 {
		return nil, nil
	}

	nextIndex := ratomic.Int64{}
	nextIndex.Store(0)

	numWorkers := rtconfig.Get().NumThreads
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if numWorkers > count {
		numWorkers = count
	}

	g, gctx := errgroup.WithContext(ctx)
	resultsMu := sync.Mutex{}
	results := make([]workerResult, 0, count)
	lowestErrIndex := -1
	var firstErr error

	for w := 0; w < numWorkers; w++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				default:
				}
				i := int(nextIndex.Inc()) - 1
				if i >= count {
					return nil
				}
				v, err := closure(i)
				if err != nil {
					resultsMu.Lock()
					if lowestErrIndex == -1 || i < lowestErrIndex {
						lowestErrIndex = i
						firstErr = err
					}
					resultsMu.Unlock()
					nextIndex.Store(int64(count))
					return err
				}
				resultsMu.Lock()
				results = append(results, workerResult{index: i, value: v})
				resultsMu.Unlock()
			}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, firstErr
	}

	out := make([]interface{}, count)
	for _, r := range results {
		out[r.index] = r.value
	}
	return out, nil
}
