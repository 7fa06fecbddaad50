// Package fanout runs a bounded number of jobs concurrently and
// collects their results in submission order, the same shape as the
// Python original's ThreadPoolExecutor(max_workers=N) pool.
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Job produces one result of type T, or an error that's recorded but
// never aborts its siblings: a single model call failing must not
// cancel the rest of the fan-out.
type Job[T any] func(ctx context.Context) (T, error)

// Outcome pairs a job's result with its error, at the job's original
// index.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Run executes jobs with at most concurrency running at once, returning
// one Outcome per job in the same order jobs was given. A job that
// errors does not cancel sibling jobs — errgroup.Wait's error is
// intentionally discarded for that reason; callers inspect Outcome.Err
// per job instead.
func Run[T any](ctx context.Context, jobs []Job[T], concurrency int) []Outcome[T] {
	results := make([]Outcome[T], len(jobs))
	if len(jobs) == 0 {
		return results
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			value, err := job(gctx)
			results[i] = Outcome[T]{Value: value, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
