// Package usecase implements the payment webhook receiver.
package usecase

import (
	"context"
	"time"

	notificationDomain "github.com/allisson/enrollments/internal/notification/domain"
	paymentDomain "github.com/allisson/enrollments/internal/payment/domain"
)

// LedgerRepository records processed event ids.
type LedgerRepository interface {
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) error
}

// FailedPaymentRepository keeps failed payments for reconciliation.
type FailedPaymentRepository interface {
	Record(ctx context.Context, payment *paymentDomain.FailedPayment) error
}

// NotificationDispatcher hands an enrollment notification to the bus. It never fails;
// the status only reports where the notification ended up.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, email, courseID string) notificationDomain.DispatchStatus
}

// WebhookUseCase processes signed gateway deliveries.
type WebhookUseCase interface {
	// Handle verifies body against signature and runs the pipeline for the event.
	Handle(ctx context.Context, body []byte, signature string) (paymentDomain.Outcome, error)
}
