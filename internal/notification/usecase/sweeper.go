package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	notificationDomain "github.com/allisson/enrollments/internal/notification/domain"
	notificationService "github.com/allisson/enrollments/internal/notification/service"
)

type sweeper struct {
	publisher notificationService.Publisher
	overflow  OverflowRepository
	logger    *slog.Logger
}

// NewSweeper creates the failed-emails sweeper.
func NewSweeper(
	publisher notificationService.Publisher,
	overflow OverflowRepository,
	logger *slog.Logger,
) Sweeper {
	return &sweeper{
		publisher: publisher,
		overflow:  overflow,
		logger:    logger,
	}
}

// Sweep makes one pass over the failed-emails queue. Each popped task gets a single
// publish attempt; failures go back to the tail. The pass is bounded by the length
// seen at the start, so tasks requeued during the pass wait for the next tick.
func (s *sweeper) Sweep(ctx context.Context) (notificationDomain.SweepResult, error) {
	queue := notificationDomain.FailedEmailsQueue
	result := notificationDomain.SweepResult{Queue: queue}

	pending, err := s.overflow.Len(ctx, queue)
	if err != nil {
		return result, fmt.Errorf("%w: %w", notificationDomain.ErrQueueDrain, err)
	}

	var drainErrs []error
sweep:
	for range pending {
		if err := ctx.Err(); err != nil {
			drainErrs = append(drainErrs, err)
			break
		}

		task, err := s.overflow.Pop(ctx, queue)
		switch {
		case errors.Is(err, notificationDomain.ErrQueueEmpty):
			break sweep
		case errors.Is(err, notificationDomain.ErrMalformedMessage):
			result.Scanned++
			result.Dropped++
			s.logger.Error("dropping malformed overflow entry", slog.Any("error", err))
			continue
		case err != nil:
			drainErrs = append(drainErrs, err)
			break sweep
		}
		result.Scanned++

		if err := s.publisher.Publish(ctx, task.Message()); err != nil {
			task.Attempts++
			task.LastError = err.Error()
			if pushErr := s.overflow.Push(context.WithoutCancel(ctx), queue, task); pushErr != nil {
				result.Dropped++
				drainErrs = append(drainErrs, pushErr)
				s.logger.Error("notification lost, overflow push back failed",
					slog.String("task_id", task.ID.String()),
					slog.String("email", task.Email),
					slog.String("course_id", task.CourseID),
					slog.Any("error", pushErr),
				)
				continue
			}
			result.Requeued++
			continue
		}
		result.Published++
	}

	if len(drainErrs) > 0 {
		err := fmt.Errorf("%w: %w", notificationDomain.ErrQueueDrain, errors.Join(drainErrs...))
		s.logger.Error("overflow sweep incomplete",
			slog.String("queue", queue),
			slog.Int("published", result.Published),
			slog.Int("requeued", result.Requeued),
			slog.Any("error", err),
		)
		return result, err
	}

	s.logger.Info("overflow sweep finished",
		slog.String("queue", queue),
		slog.Int("scanned", result.Scanned),
		slog.Int("published", result.Published),
		slog.Int("requeued", result.Requeued),
		slog.Int("dropped", result.Dropped),
	)
	return result, nil
}
