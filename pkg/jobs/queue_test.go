package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsEveryJobOnce(t *testing.T) {
	var runs atomic.Int32
	q := NewQueue("exports", func(context.Context, Job) error {
		runs.Add(1)
		return nil
	}, QueueConfig{Workers: 3})
	q.Start(context.Background())

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, q.Enqueue(Job{ID: id, Type: "roster"}))
	}
	results := q.Drain()

	assert.Len(t, results, 5)
	assert.Equal(t, int32(5), runs.Load())
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
	assert.Error(t, q.Enqueue(Job{ID: "late"}), "drained queue refuses jobs")
}

func TestQueueRetriesThenReportsFailure(t *testing.T) {
	var attempts atomic.Int32
	boom := errors.New("backend unavailable")
	q := NewQueue("exports", func(_ context.Context, job Job) error {
		attempts.Add(1)
		if job.ID == "flaky" && job.Attempt == 0 {
			return boom
		}
		if job.ID == "broken" {
			return boom
		}
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: time.Millisecond})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "flaky"}))
	require.NoError(t, q.Enqueue(Job{ID: "broken"}))
	results := q.Drain()

	require.Len(t, results, 2)
	byID := map[string]Result{}
	for _, r := range results {
		byID[r.Job.ID] = r
	}
	assert.NoError(t, byID["flaky"].Err)
	assert.Equal(t, 1, byID["flaky"].Job.Attempt)
	assert.ErrorIs(t, byID["broken"].Err, boom)
	assert.Equal(t, 2, byID["broken"].Job.Attempt)
	assert.Equal(t, int32(5), attempts.Load())
}

func TestQueueCancelledContextFinishesPendingJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewQueue("exports", func(context.Context, Job) error {
		cancel()
		return errors.New("fail")
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: time.Hour})
	q.Start(ctx)

	require.NoError(t, q.Enqueue(Job{ID: "first"}))
	results := q.Drain()

	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}

func TestQueueNotStarted(t *testing.T) {
	q := NewQueue("exports", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "x"}))
	assert.Nil(t, q.Drain())
}
