package fanout_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/praetorian-inc/arc-orchestrator/pkg/fanout"
	"github.com/stretchr/testify/assert"
)

func TestRunPreservesOrderAndCollectsErrors(t *testing.T) {
	jobs := []fanout.Job[int]{
		func(ctx context.Context) (int, error) { return 1, nil },
		func(ctx context.Context) (int, error) { return 0, errors.New("boom") },
		func(ctx context.Context) (int, error) { return 3, nil },
	}

	results := fanout.Run(context.Background(), jobs, 2)

	assert.Len(t, results, 3)
	assert.Equal(t, 1, results[0].Value)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.Equal(t, 3, results[2].Value)
}

func TestRunRespectsConcurrencyLimit(t *testing.T) {
	var current, maxSeen int32
	jobs := make([]fanout.Job[struct{}], 20)
	for i := range jobs {
		jobs[i] = func(ctx context.Context) (struct{}, error) {
			n := atomic.AddInt32(&current, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			atomic.AddInt32(&current, -1)
			return struct{}{}, nil
		}
	}

	fanout.Run(context.Background(), jobs, 3)
	assert.LessOrEqual(t, int(maxSeen), 3)
}

func TestRunEmptyJobs(t *testing.T) {
	results := fanout.Run(context.Background(), []fanout.Job[int]{}, 4)
	assert.Empty(t, results)
}
