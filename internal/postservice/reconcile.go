package postservice

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultReconcileWorkers   = 2
	DefaultReconcileQueueSize = 256
)

type publisher interface {
	markPublished(ctx context.Context, id string, now time.Time) (bool, error)
}

// ReconcileStats counts the outcome of processed jobs.
type ReconcileStats struct {
	Published int64 `json:"published"`
	Unchanged int64 `json:"unchanged"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
}

// Reconciler persists the published status of due scheduled posts in the
// background. Jobs are best effort: a dropped or failed job is corrected again
// by the next read that sees the same row.
type Reconciler struct {
	p      publisher
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	idle    *sync.Cond
	closed  bool
	pending int
	jobs    chan string
	workers sync.WaitGroup

	published atomic.Int64
	unchanged atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

func NewReconciler(p publisher, logger *slog.Logger, workers, queueSize int, now func() time.Time) *Reconciler {
	if workers < 1 {
		workers = DefaultReconcileWorkers
	}
	if queueSize < 1 {
		queueSize = DefaultReconcileQueueSize
	}
	if now == nil {
		now = time.Now
	}

	r := &Reconciler{
		p:      p,
		logger: logger,
		now:    now,
		jobs:   make(chan string, queueSize),
	}
	r.idle = sync.NewCond(&r.mu)

	for range workers {
		r.workers.Add(1)
		go r.run()
	}

	return r
}

// Enqueue schedules a status correction for the post id without blocking.
// It returns false when the queue is full or the reconciler is closed.
func (r *Reconciler) Enqueue(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}

	select {
	case r.jobs <- id:
		r.pending++
		return true
	default:
		r.dropped.Add(1)
		r.logger.Warn("reconcile queue full, dropping job", slog.String("post_id", id))
		return false
	}
}

// Wait blocks until no accepted job is queued or running. Jobs enqueued while
// Wait blocks are waited for too.
func (r *Reconciler) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.pending > 0 {
		r.idle.Wait()
	}
}

// Close stops accepting jobs, drains the queue and stops the workers.
func (r *Reconciler) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.jobs)
	r.mu.Unlock()

	r.workers.Wait()
}

func (r *Reconciler) Stats() ReconcileStats {
	return ReconcileStats{
		Published: r.published.Load(),
		Unchanged: r.unchanged.Load(),
		Failed:    r.failed.Load(),
		Dropped:   r.dropped.Load(),
	}
}

func (r *Reconciler) run() {
	defer r.workers.Done()

	for id := range r.jobs {
		r.reconcile(id)
		r.done()
	}
}

func (r *Reconciler) done() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending--
	if r.pending == 0 {
		r.idle.Broadcast()
	}
}

func (r *Reconciler) reconcile(id string) {
	changed, err := r.p.markPublished(context.Background(), id, r.now())
	if err != nil {
		r.failed.Add(1)
		r.logger.Error("could not auto-publish post", slog.String("post_id", id), slog.String("error", err.Error()))
		return
	}

	if changed {
		r.published.Add(1)
		r.logger.Info("auto-published scheduled post", slog.String("post_id", id))
		return
	}

	r.unchanged.Add(1)
}
