// Package scheduler runs fire-and-forget background tasks. The memory
// engine uses it for side effects that are decoupled from the
// request/response cycle that triggered them, like regenerating the
// client-facing summary after a write.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task is a unit of detached work. The error return feeds the runner's
// log line only; it is never surfaced to the submitter.
type Task func(ctx context.Context) error

// Runner executes submitted tasks on a bounded worker pool. Submission
// never blocks: when the backlog is full the task is dropped with a log
// line. Panics in tasks are recovered so a side effect can never take
// down its trigger.
type Runner struct {
	name    string
	tasks   chan namedTask
	timeout time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup

	idleMu  sync.Mutex
	pending int
	idleCh  chan struct{}
}

type namedTask struct {
	name string
	fn   Task
}

// NewRunner starts a runner with the given worker count and backlog size.
func NewRunner(name string, workers, backlog int) *Runner {
	if workers <= 0 {
		workers = 2
	}
	if backlog <= 0 {
		backlog = 64
	}
	r := &Runner{
		name:    name,
		tasks:   make(chan namedTask, backlog),
		timeout: 2 * time.Minute,
		stopCh:  make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	return r
}

// Submit queues a task for detached execution. The caller gets an error
// only when the task was not accepted at all (backlog full or runner
// stopped); task outcomes are logged, never returned.
func (r *Runner) Submit(taskName string, fn Task) error {
	select {
	case <-r.stopCh:
		return ErrStopped
	default:
	}

	r.idleMu.Lock()
	r.pending++
	r.idleMu.Unlock()

	select {
	case r.tasks <- namedTask{name: taskName, fn: fn}:
		return nil
	default:
		r.taskDone()
		slog.Warn("background task dropped, queue full", "runner", r.name, "task", taskName)
		return ErrQueueFull
	}
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for {
		select {
		case t := <-r.tasks:
			r.run(t)
		case <-r.stopCh:
			// Drain what was already accepted.
			for {
				select {
				case t := <-r.tasks:
					r.run(t)
				default:
					return
				}
			}
		}
	}
}

func (r *Runner) run(t namedTask) {
	defer r.taskDone()
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("background task panicked", "runner", r.name, "task", t.name, "panic", rec)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := t.fn(ctx); err != nil {
		slog.Warn("background task failed", "runner", r.name, "task", t.name, "error", err)
	}
}

func (r *Runner) taskDone() {
	r.idleMu.Lock()
	r.pending--
	if r.pending == 0 && r.idleCh != nil {
		close(r.idleCh)
		r.idleCh = nil
	}
	r.idleMu.Unlock()
}

// WaitIdle blocks until every accepted task has finished. Used by tests
// and by Shutdown.
func (r *Runner) WaitIdle() {
	r.idleMu.Lock()
	if r.pending == 0 {
		r.idleMu.Unlock()
		return
	}
	if r.idleCh == nil {
		r.idleCh = make(chan struct{})
	}
	ch := r.idleCh
	r.idleMu.Unlock()
	<-ch
}

// Shutdown stops accepting tasks, waits for in-flight ones and returns.
func (r *Runner) Shutdown() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.WaitIdle()
	r.wg.Wait()
}
