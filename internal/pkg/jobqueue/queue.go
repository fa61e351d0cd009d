package jobqueue

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkaya/coursebuilder/internal/pkg/logger"
)

// HandlerFunc executes one job attempt. A non-nil error triggers a retry
// until the job's retry budget is exhausted.
type HandlerFunc func(ctx context.Context, payload interface{}) error

// Options control how a job is enqueued.
type Options struct {
	Priority Priority
	// Retries overrides the queue's default retry budget when >= 0.
	Retries int
}

// Queue is an in-process priority job queue with a fixed worker pool.
// Jobs are best-effort: failures are recorded on the job and logged,
// never propagated to the enqueuer.
type Queue struct {
	concurrency int
	maxRetries  int
	baseBackoff time.Duration
	log         zerolog.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	pending jobHeap
	seq     uint64
	closed  bool

	wg sync.WaitGroup
}

// New creates a queue with the given worker concurrency, default retry
// budget and base backoff for the exponential retry delay.
func New(concurrency, maxRetries int, baseBackoff time.Duration) *Queue {
	if concurrency < 1 {
		concurrency = 1
	}
	if baseBackoff <= 0 {
		baseBackoff = time.Second
	}
	q := &Queue{
		concurrency: concurrency,
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
		log:         logger.With("jobqueue"),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Start launches the worker pool. Workers run until ctx is cancelled.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.concurrency; i++ {
		q.wg.Add(1)
		go q.runWorker(ctx)
	}

	go func() {
		<-ctx.Done()
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
		q.cond.Broadcast()
	}()
}

// Wait blocks until all workers have exited.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Enqueue adds a job and returns it so callers can observe its state.
// It never blocks and never fails; on a stopped queue the job is marked
// failed immediately.
func (q *Queue) Enqueue(name string, fn HandlerFunc, payload interface{}, opts Options) *Job {
	retries := q.maxRetries
	if opts.Retries >= 0 {
		retries = opts.Retries
	}

	job := &Job{
		Name:       name,
		Payload:    payload,
		Priority:   opts.Priority,
		MaxRetries: retries,
		status:     StatusPending,
		handler:    fn,
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		job.setStatus(StatusFailed)
		q.log.Warn().Str("job", name).Msg("Enqueue on stopped queue, job dropped")
		return job
	}
	q.seq++
	job.seq = q.seq
	heap.Push(&q.pending, job)
	q.mu.Unlock()
	q.cond.Signal()

	return job
}

func (q *Queue) runWorker(ctx context.Context) {
	defer q.wg.Done()

	for {
		job := q.next()
		if job == nil {
			return
		}
		q.process(ctx, job)
	}
}

// next blocks until a job is available or the queue is stopped.
func (q *Queue) next() *Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.pending) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.pending) == 0 {
		return nil
	}
	return heap.Pop(&q.pending).(*Job)
}

func (q *Queue) process(ctx context.Context, job *Job) {
	job.setStatus(StatusProcessing)

	err := q.runHandler(ctx, job)
	if err == nil {
		job.setStatus(StatusCompleted)
		return
	}

	attempts := job.recordAttempt(err)
	if attempts > job.MaxRetries {
		job.setStatus(StatusFailed)
		q.log.Error().Err(err).Str("job", job.Name).Int("attempts", attempts).Msg("Job failed, retry budget exhausted")
		return
	}

	// Exponential backoff: base * 2^(attempt-1). The job leaves the heap
	// while retrying and is re-queued when the delay expires.
	job.setStatus(StatusRetrying)
	delay := q.baseBackoff * (1 << (attempts - 1))
	q.log.Warn().Err(err).Str("job", job.Name).Int("attempt", attempts).Dur("retryIn", delay).Msg("Job attempt failed, scheduling retry")

	time.AfterFunc(delay, func() {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			job.setStatus(StatusFailed)
			return
		}
		job.setStatus(StatusPending)
		q.seq++
		job.seq = q.seq
		heap.Push(&q.pending, job)
		q.mu.Unlock()
		q.cond.Signal()
	})
}

// runHandler isolates panics so a misbehaving job cannot take down a worker.
func (q *Queue) runHandler(ctx context.Context, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panic: %v", r)
		}
	}()
	return job.handler(ctx, job.Payload)
}
