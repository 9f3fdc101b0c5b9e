package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	notificationDomain "github.com/allisson/enrollments/internal/notification/domain"
	notificationService "github.com/allisson/enrollments/internal/notification/service"
)

// DispatcherConfig holds the retry policy.
type DispatcherConfig struct {
	// MaxAttempts is the total number of publish attempts, including the first.
	MaxAttempts int
	// InitialBackoff is the delay after the first failure. It doubles on every retry.
	InitialBackoff time.Duration
}

// PublishAllowance is the time budgeted for one publish and its broker confirm.
const PublishAllowance = 5 * time.Second

// RetryBudget is the longest a full retry schedule takes when every publish takes
// perAttempt: the backoff delays plus one perAttempt per attempt.
func (c DispatcherConfig) RetryBudget(perAttempt time.Duration) time.Duration {
	attempts := max(c.MaxAttempts, 1)
	var delays time.Duration
	delay := c.InitialBackoff
	for i := 1; i < attempts; i++ {
		delays += delay
		delay *= 2
	}
	return delays + time.Duration(attempts)*perAttempt
}

type dispatcher struct {
	config    DispatcherConfig
	publisher notificationService.Publisher
	overflow  OverflowRepository
	logger    *slog.Logger
	timer     backoff.Timer
	now       func() time.Time
}

// NewDispatcher creates a dispatcher that retries with exponential backoff and parks
// the task on the failed-emails queue once attempts are exhausted.
func NewDispatcher(
	config DispatcherConfig,
	publisher notificationService.Publisher,
	overflow OverflowRepository,
	logger *slog.Logger,
) Dispatcher {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &dispatcher{
		config:    config,
		publisher: publisher,
		overflow:  overflow,
		logger:    logger,
		now:       time.Now,
	}
}

func (d *dispatcher) newBackOff(ctx context.Context) backoff.BackOff {
	// WithMaxRetries treats zero as unlimited.
	if d.config.MaxAttempts == 1 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.config.InitialBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = d.config.InitialBackoff << d.config.MaxAttempts
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(d.config.MaxAttempts-1)), ctx)
}

// Dispatch publishes {email, courseId}. It never fails: after the last attempt, or when
// ctx ends first, the task moves to the overflow queue.
func (d *dispatcher) Dispatch(ctx context.Context, email, courseID string) notificationDomain.DispatchStatus {
	msg := notificationDomain.EnrollmentMessage{Email: email, CourseID: courseID}
	logger := d.logger.With(slog.String("course_id", courseID))

	attempts := 0
	operation := func() error {
		attempts++
		return d.publisher.Publish(ctx, msg)
	}
	notify := func(err error, next time.Duration) {
		logger.Warn("notification publish failed, retrying",
			slog.Int("attempt", attempts),
			slog.Duration("backoff", next),
			slog.Any("error", err),
		)
	}

	err := backoff.RetryNotifyWithTimer(operation, d.newBackOff(ctx), notify, d.timer)
	if err == nil {
		return notificationDomain.DispatchPublished
	}

	lastErr := fmt.Errorf("%w after %d attempts: %w", notificationDomain.ErrDispatchFailed, attempts, err)
	task := notificationDomain.NewEnrollmentTask(msg, attempts, lastErr, d.now())

	// The caller's deadline may be what stopped the retries.
	if pushErr := d.overflow.Push(context.WithoutCancel(ctx), notificationDomain.FailedEmailsQueue, task); pushErr != nil {
		logger.Error("notification lost, overflow push failed",
			slog.String("email", email),
			slog.Any("error", errors.Join(lastErr, pushErr)),
		)
		return notificationDomain.DispatchLost
	}

	logger.Warn("notification parked on overflow queue",
		slog.String("task_id", task.ID.String()),
		slog.Int("attempts", attempts),
		slog.Any("error", lastErr),
	)
	return notificationDomain.DispatchOverflowed
}
