package sched

import (
	"context"
	"log/slog"
	"time"
)

// Task is one periodically executed unit of work. Cycle errors are reported
// at the cycle boundary and never stop the schedule; the next tick is the
// retry.
type Task interface {
	Name() string
	Cycle(ctx context.Context) error
}

// Runner invokes a Task on a fixed interval. All cycles run on the Runner's
// own goroutine, so invocations of one task never overlap: a tick that
// arrives while a cycle is still executing is coalesced by the ticker and the
// next cycle starts only after the current one returns.
type Runner struct {
	task     Task
	interval time.Duration
}

// New creates a Runner that executes task every interval.
func New(task Task, interval time.Duration) *Runner {
	return &Runner{task: task, interval: interval}
}

// Run blocks until ctx is cancelled, executing the task on every tick.
func (r *Runner) Run(ctx context.Context) {
	slog.Info("sched: task scheduled", "task", r.task.Name(), "interval", r.interval)

	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sched: task stopped", "task", r.task.Name())
			return
		case <-t.C:
			if err := r.task.Cycle(ctx); err != nil {
				slog.Error("sched: cycle failed", "task", r.task.Name(), "err", err)
			}
		}
	}
}
