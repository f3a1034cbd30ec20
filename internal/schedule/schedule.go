// Package schedule runs a job on a cron schedule until its context is
// cancelled. Runs never overlap: a run that outlasts its slot delays the
// next one to the first slot after it finishes.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled run.
type Job func(ctx context.Context) error

// Schedule wraps a parsed five-field cron expression.
type Schedule struct {
	expr  string
	sched cron.Schedule
}

// Parse parses a standard cron expression ("0 3 * * *") or a descriptor
// such as "@daily" or "@every 6h".
func Parse(expr string) (*Schedule, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	return &Schedule{expr: expr, sched: sched}, nil
}

// String returns the original expression.
func (s *Schedule) String() string { return s.expr }

// Next returns the first activation strictly after t.
func (s *Schedule) Next(t time.Time) time.Time { return s.sched.Next(t) }

// Runner drives a Job on a Schedule.
type Runner struct {
	Schedule *Schedule
	Job      Job
	Logger   *slog.Logger
	Now      func() time.Time // Default time.Now.

	// after is swapped in tests.
	after func(time.Duration) <-chan time.Time
}

// Run blocks, invoking Job at every activation until ctx is done. Job
// errors are logged and do not stop the schedule. Returns ctx.Err().
func (r *Runner) Run(ctx context.Context) error {
	now := r.Now
	if now == nil {
		now = time.Now
	}
	after := r.after
	if after == nil {
		after = time.After
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		next := r.Schedule.Next(now())
		logger.Info("next scheduled run",
			slog.String("schedule", r.Schedule.String()),
			slog.Time("at", next))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-after(next.Sub(now())):
		}

		start := now()
		if err := r.Job(ctx); err != nil {
			logger.Error("scheduled run failed",
				slog.String("error", err.Error()),
				slog.Duration("duration", now().Sub(start)))
			continue
		}
		logger.Info("scheduled run finished", slog.Duration("duration", now().Sub(start)))
	}
}
