package pipeline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// EffectiveWorkers returns the pool size for n archives: the requested
// count (or GOMAXPROCS when 0), capped at n, at least 1.
func EffectiveWorkers(requested, n int) int {
	w := requested
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	if w > n {
		w = n
	}
	if w < 1 {
		w = 1
	}
	return w
}

type job struct {
	index int
	path  string
}

type jobResult struct {
	index int
	res   ArchiveResult
}

// processAll runs fn over paths on a fixed pool of workers fed by a bounded
// queue. Results come back in paths order regardless of completion order.
// onDone is called from the collecting goroutine after each archive, with
// the number finished so far. On cancellation the partial results are
// discarded and the context error is returned.
func processAll(
	ctx context.Context,
	paths []string,
	workers int,
	fn func(context.Context, string) ArchiveResult,
	onDone func(done int, r ArchiveResult),
) ([]ArchiveResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan job, workers)
	results := make(chan jobResult, workers)

	g.Go(func() error {
		defer close(jobs)
		for i, p := range paths {
			select {
			case jobs <- job{index: i, path: p}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for j := range jobs {
				r := fn(gctx, j.path)
				if err := gctx.Err(); err != nil {
					return err
				}
				select {
				case results <- jobResult{index: j.index, res: r}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- g.Wait()
		close(results)
	}()

	out := make([]ArchiveResult, len(paths))
	done := 0
	for r := range results {
		out[r.index] = r.res
		done++
		if onDone != nil {
			onDone(done, r.res)
		}
	}
	if err := <-waitErr; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
