package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Task is one unit of scheduled work. It should return promptly once ctx is done.
type Task func(ctx context.Context)

// Scheduler owns the main loop: runs the task once, then on every tick of the interval.
type Scheduler struct {
	name     string
	task     Task
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that runs task at the given interval.
func NewScheduler(name string, task Task, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		name:     name,
		task:     task,
		interval: interval,
		logger:   logger,
	}
}

// Run starts the loop. It runs one immediate cycle, then ticks on the
// configured interval. It returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler",
		"task", s.name,
		"interval", s.interval.String(),
	)

	if ctx.Err() != nil {
		s.logger.Info("shutting down scheduler", "task", s.name)
		return nil
	}
	s.task(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler", "task", s.name)
			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				continue
			}
			s.task(ctx)
		}
	}
}
