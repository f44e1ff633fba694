// Package jobs runs background work on a small pool of workers. Jobs are
// independent of each other: there is no ordering, coordination or retry.
package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tonimelisma/spsync/internal/logger"
)

var (
	// ErrQueueFull is returned when the buffer has no room for another job.
	ErrQueueFull = errors.New("job queue is full")
	// ErrQueueClosed is returned after Stop.
	ErrQueueClosed = errors.New("job queue is closed")
)

// Func is the body of a job.
type Func func(ctx context.Context) error

type job struct {
	id       string
	name     string
	run      Func
	enqueued time.Time
}

// Stats counts what the queue has done so far.
type Stats struct {
	Enqueued  int64 `json:"enqueued"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Pending   int   `json:"pending"`
}

// Queue is a bounded buffer drained by a fixed number of workers.
type Queue struct {
	jobs    chan job
	workers int
	logger  logger.Logger

	mu     sync.RWMutex
	closed bool
	cancel context.CancelFunc
	wg     sync.WaitGroup

	enqueued  atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

// NewQueue creates a queue with the given number of workers and buffer size.
func NewQueue(workers, buffer int, log logger.Logger) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if buffer <= 0 {
		buffer = 64
	}
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Queue{
		jobs:    make(chan job, buffer),
		workers: workers,
		logger:  log,
	}
}

// Start launches the workers. Jobs see ctx's values but not its
// cancellation: a cancelled ctx still lets Stop drain the buffer, and only a
// Shutdown deadline cancels running jobs.
func (q *Queue) Start(ctx context.Context) {
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	q.mu.Lock()
	q.cancel = cancel
	q.mu.Unlock()

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(jobCtx, i)
	}
}

func (q *Queue) work(ctx context.Context, worker int) {
	defer q.wg.Done()
	for j := range q.jobs {
		q.run(ctx, worker, j)
	}
}

func (q *Queue) run(ctx context.Context, worker int, j job) {
	log := q.logger.With("job_id", j.id, "job", j.name, "worker", worker)
	defer func() {
		if r := recover(); r != nil {
			q.failed.Add(1)
			log.Error("job panicked", "panic", r)
		}
	}()

	start := time.Now()
	log.Debug("job started", "queued_for", start.Sub(j.enqueued))
	if err := j.run(ctx); err != nil {
		q.failed.Add(1)
		log.Error("job failed", "error", err, "duration", time.Since(start))
		return
	}
	q.succeeded.Add(1)
	log.Info("job finished", "duration", time.Since(start))
}

// Enqueue schedules fn and returns its job ID. It never blocks.
func (q *Queue) Enqueue(name string, fn Func) (string, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return "", ErrQueueClosed
	}

	j := job{id: uuid.NewString(), name: name, run: fn, enqueued: time.Now()}
	select {
	case q.jobs <- j:
		q.enqueued.Add(1)
		q.logger.Debug("job enqueued", "job_id", j.id, "job", name)
		return j.id, nil
	default:
		return "", ErrQueueFull
	}
}

// Stop refuses new jobs, lets the workers drain what is buffered and waits
// for them to exit.
func (q *Queue) Stop() {
	_ = q.Shutdown(context.Background())
}

// Shutdown is Stop bounded by ctx. When ctx ends before the buffer is
// drained, the running and remaining jobs get a cancelled context, Shutdown
// waits for the workers to exit and returns ctx's error.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	cancel := q.cancel
	q.mu.Unlock()
	if cancel != nil {
		defer cancel()
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
	}
	q.logger.Warn("drain deadline reached, cancelling remaining jobs", "pending", len(q.jobs))
	if cancel != nil {
		cancel()
	}
	<-done
	return ctx.Err()
}

// Stats returns the current counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Enqueued:  q.enqueued.Load(),
		Succeeded: q.succeeded.Load(),
		Failed:    q.failed.Load(),
		Pending:   len(q.jobs),
	}
}
