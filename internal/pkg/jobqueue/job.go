package jobqueue

import (
	"sync"
)

// Status is the lifecycle state of a queued job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusRetrying   Status = "retrying"
	StatusCompleted  Status = "completed"
	// StatusFailed is terminal and only reached after the retry budget
	// is exhausted.
	StatusFailed Status = "failed"
)

// Priority orders jobs in the queue. Higher values are dequeued first;
// ties are broken by enqueue order.
type Priority int

const (
	PriorityNormal Priority = 0
	PriorityHigh   Priority = 10
)

// Job is a single unit of best-effort background work.
type Job struct {
	Name     string
	Payload  interface{}
	Priority Priority

	// MaxRetries is the number of re-attempts after the first failure.
	MaxRetries int

	mu       sync.Mutex
	status   Status
	attempts int
	lastErr  error

	handler HandlerFunc
	seq     uint64
}

// Status returns the job's current lifecycle state.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Attempts returns how many times the handler has run.
func (j *Job) Attempts() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.attempts
}

// LastError returns the error recorded on the most recent failed attempt.
func (j *Job) LastError() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastErr
}

func (j *Job) setStatus(s Status) {
	j.mu.Lock()
	j.status = s
	j.mu.Unlock()
}

func (j *Job) recordAttempt(err error) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.attempts++
	j.lastErr = err
	return j.attempts
}

// jobHeap orders jobs by priority (descending), then enqueue order.
type jobHeap []*Job

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].seq < h[j].seq
}

func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *jobHeap) Push(x interface{}) {
	*h = append(*h, x.(*Job))
}

func (h *jobHeap) Pop() interface{} {
	old := *h
	n := len(old)
	job := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return job
}
