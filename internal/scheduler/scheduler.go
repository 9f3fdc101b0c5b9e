// Package scheduler runs the periodic jobs of the worker on cron expressions.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a named unit of work triggered on a cron schedule.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// Scheduler triggers jobs until its context ends. A job still running when its next
// tick arrives is skipped for that tick.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	baseCtx context.Context
}

// New creates a scheduler evaluating schedules in UTC. Standard five-field expressions
// and descriptors such as "@every 1m" are accepted.
func New(logger *slog.Logger, jobs ...Job) (*Scheduler, error) {
	cronLogger := NewCronLogger(logger)
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		logger:  logger,
		baseCtx: context.Background(),
	}

	for _, job := range jobs {
		if err := s.add(job); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Scheduler) add(job Job) error {
	_, err := s.cron.AddFunc(job.Schedule, func() {
		start := time.Now()
		logger := s.logger.With(slog.String("job", job.Name))

		if err := job.Run(s.baseCtx); err != nil {
			logger.Error("scheduled job failed",
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)
			return
		}
		logger.Info("scheduled job completed", slog.Duration("duration", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", job.Schedule, job.Name, err)
	}

	s.logger.Info("job scheduled",
		slog.String("job", job.Name),
		slog.String("schedule", job.Schedule),
	)
	return nil
}

// Run starts the scheduler and blocks until ctx is done, then waits for running jobs.
// Jobs receive ctx, so they observe the shutdown too.
func (s *Scheduler) Run(ctx context.Context) error {
	s.baseCtx = ctx
	s.cron.Start()
	s.logger.Info("scheduler started", slog.Int("jobs", len(s.cron.Entries())))

	<-ctx.Done()

	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}
