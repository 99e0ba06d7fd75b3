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

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan string, 2)
	q := NewQueue("ingest", func(ctx context.Context, job Job) error {
		done <- job.Payload.(string)
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Payload: "a"}))
	require.NoError(t, q.Enqueue(Job{ID: "2", Payload: "b"}))

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case v := <-done:
			got[v] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for job")
		}
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true}, got)
}

func TestQueueRetriesUntilLimit(t *testing.T) {
	var attempts int32
	finished := make(chan struct{})
	q := NewQueue("ingest", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) == 3 {
			close(finished)
		}
		return errors.New("boom")
	}, QueueConfig{MaxRetries: 2, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "1"}))
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("expected three attempts")
	}
	time.Sleep(30 * time.Millisecond)
	q.Stop()
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestQueueRecoversFromPanics(t *testing.T) {
	var attempts int32
	q := NewQueue("ingest", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&attempts, 1)
		panic("bad job")
	}, QueueConfig{MaxRetries: 0})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "1"}))
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&attempts) == 1 }, time.Second, 5*time.Millisecond)
	q.Stop()
}

func TestQueueAppliesJobTimeout(t *testing.T) {
	expired := make(chan error, 1)
	q := NewQueue("ingest", func(ctx context.Context, job Job) error {
		<-ctx.Done()
		expired <- ctx.Err()
		return nil
	}, QueueConfig{JobTimeout: 10 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1"}))
	select {
	case err := <-expired:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("job context never expired")
	}
}

func TestQueueRejectsWhenNotRunningOrFull(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("ingest", func(ctx context.Context, job Job) error {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})

	assert.ErrorIs(t, q.Enqueue(Job{ID: "early"}), ErrQueueStopped)

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{ID: "1"}))
	assert.Eventually(t, func() bool { return q.Depth() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, q.Enqueue(Job{ID: "2"}))
	assert.ErrorIs(t, q.Enqueue(Job{ID: "3"}), ErrQueueFull)

	close(block)
	q.Stop()
	assert.ErrorIs(t, q.Enqueue(Job{ID: "late"}), ErrQueueStopped)
}
