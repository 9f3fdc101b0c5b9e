// Package usecase implements notification dispatch with bounded retry, the overflow
// sweeper and the bus consumer.
package usecase

import (
	"context"

	notificationDomain "github.com/allisson/enrollments/internal/notification/domain"
)

// OverflowRepository is the durable fallback for undelivered tasks.
type OverflowRepository interface {
	Push(ctx context.Context, queue string, task *notificationDomain.Task) error
	Pop(ctx context.Context, queue string) (*notificationDomain.Task, error)
	Len(ctx context.Context, queue string) (int64, error)
}

// Dispatcher hands enrollment notifications to the bus. Failures are absorbed.
type Dispatcher interface {
	Dispatch(ctx context.Context, email, courseID string) notificationDomain.DispatchStatus
}

// Sweeper re-publishes tasks parked on the overflow queue.
type Sweeper interface {
	Sweep(ctx context.Context) (notificationDomain.SweepResult, error)
}
