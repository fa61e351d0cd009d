package jobqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForStatus(t *testing.T, job *Job, want Status) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if job.Status() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %q never reached status %q, last status %q", job.Name, want, job.Status())
}

func TestQueue_CompletesJob(t *testing.T) {
	q := New(1, 0, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	var ran int32
	job := q.Enqueue("noop", func(ctx context.Context, payload interface{}) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}, nil, Options{Retries: -1})

	waitForStatus(t, job, StatusCompleted)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
	assert.NoError(t, job.LastError())
}

func TestQueue_PriorityOrder(t *testing.T) {
	q := New(1, 0, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	// Occupy the single worker so the next three jobs queue up together.
	gate := make(chan struct{})
	gateJob := q.Enqueue("gate", func(ctx context.Context, payload interface{}) error {
		<-gate
		return nil
	}, nil, Options{Retries: -1})

	var mu sync.Mutex
	order := []string{}
	record := func(ctx context.Context, payload interface{}) error {
		mu.Lock()
		order = append(order, payload.(string))
		mu.Unlock()
		return nil
	}

	// Give the worker a moment to pick up the gate job.
	time.Sleep(20 * time.Millisecond)

	first := q.Enqueue("normal-a", record, "normal-a", Options{Retries: -1})
	high := q.Enqueue("high", record, "high", Options{Priority: PriorityHigh, Retries: -1})
	second := q.Enqueue("normal-b", record, "normal-b", Options{Retries: -1})
	close(gate)

	waitForStatus(t, gateJob, StatusCompleted)
	waitForStatus(t, first, StatusCompleted)
	waitForStatus(t, high, StatusCompleted)
	waitForStatus(t, second, StatusCompleted)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"high", "normal-a", "normal-b"}, order)
}

func TestQueue_RetriesThenFails(t *testing.T) {
	q := New(1, 3, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	var attempts int32
	boom := errors.New("boom")
	job := q.Enqueue("always-fails", func(ctx context.Context, payload interface{}) error {
		atomic.AddInt32(&attempts, 1)
		return boom
	}, nil, Options{Retries: 2})

	waitForStatus(t, job, StatusFailed)
	// First attempt plus two retries.
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	assert.ErrorIs(t, job.LastError(), boom)
}

func TestQueue_NoRetriesFailsImmediately(t *testing.T) {
	q := New(1, 3, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	var attempts int32
	job := q.Enqueue("fails-once", func(ctx context.Context, payload interface{}) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("nope")
	}, nil, Options{Retries: 0})

	waitForStatus(t, job, StatusFailed)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestQueue_RecoversFromPanic(t *testing.T) {
	q := New(1, 0, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	job := q.Enqueue("panics", func(ctx context.Context, payload interface{}) error {
		panic("handler exploded")
	}, nil, Options{Retries: 0})

	waitForStatus(t, job, StatusFailed)
	require.Error(t, job.LastError())
	assert.Contains(t, job.LastError().Error(), "handler exploded")

	// The worker must survive the panic and process further jobs.
	next := q.Enqueue("after-panic", func(ctx context.Context, payload interface{}) error {
		return nil
	}, nil, Options{Retries: -1})
	waitForStatus(t, next, StatusCompleted)
}

func TestQueue_EnqueueAfterStop(t *testing.T) {
	q := New(1, 0, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)
	cancel()
	q.Wait()

	job := q.Enqueue("too-late", func(ctx context.Context, payload interface{}) error {
		return nil
	}, nil, Options{Retries: -1})

	assert.Equal(t, StatusFailed, job.Status())
}

func TestQueue_ConcurrentWorkers(t *testing.T) {
	q := New(3, 0, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	var running int32
	var peak int32
	var wg sync.WaitGroup
	wg.Add(3)

	handler := func(ctx context.Context, payload interface{}) error {
		defer wg.Done()
		current := atomic.AddInt32(&running, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if current <= old || atomic.CompareAndSwapInt32(&peak, old, current) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return nil
	}

	for i := 0; i < 3; i++ {
		q.Enqueue("parallel", handler, nil, Options{Retries: -1})
	}
	wg.Wait()

	assert.Equal(t, int32(3), atomic.LoadInt32(&peak))
}
