package scheduler

import "errors"

var (
	// ErrQueueFull is returned when a task is rejected because the runner's
	// backlog is full.
	ErrQueueFull = errors.New("task queue is full")

	// ErrStopped is returned when a task is submitted after Shutdown.
	ErrStopped = errors.New("task runner stopped")
)
