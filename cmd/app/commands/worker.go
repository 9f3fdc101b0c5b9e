package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/allisson/enrollments/internal/app"
	"github.com/allisson/enrollments/internal/config"
)

// Runner is a long-lived background task stopped by cancelling its context.
type Runner interface {
	Run(ctx context.Context) error
}

// RunWorker starts the scheduler (email retry sweep, account deletion scan) and the
// notification consumer. Blocks until SIGINT/SIGTERM or until one of them fails.
func RunWorker(ctx context.Context, version string) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting worker",
		slog.String("version", version),
		slog.String("email_retry_schedule", cfg.EmailRetrySchedule),
		slog.String("account_deletion_schedule", cfg.AccountDeletionSchedule),
	)

	defer closeContainer(container, logger)

	sched, err := container.Scheduler()
	if err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	consumer, err := container.Consumer()
	if err != nil {
		return fmt.Errorf("failed to initialize notification consumer: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return runWorkers(ctx, logger, map[string]Runner{
		"scheduler": sched,
		"consumer":  consumer,
	})
}

// runWorkers runs every runner until ctx ends. The first failure cancels the others
// and is returned once all of them have stopped.
func runWorkers(ctx context.Context, logger *slog.Logger, runners map[string]Runner) error {
	g, gctx := errgroup.WithContext(ctx)

	for name, runner := range runners {
		g.Go(func() error {
			if err := runner.Run(gctx); err != nil {
				logger.Error("worker stopped", slog.String("worker", name), slog.Any("error", err))
				return fmt.Errorf("%s: %w", name, err)
			}
			logger.Info("worker stopped", slog.String("worker", name))
			return nil
		})
	}

	return g.Wait()
}
