package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/allisson/enrollments/internal/metrics"
	paymentDomain "github.com/allisson/enrollments/internal/payment/domain"
)

// webhookUseCaseWithMetrics decorates WebhookUseCase with metrics instrumentation.
type webhookUseCaseWithMetrics struct {
	next    WebhookUseCase
	metrics metrics.BusinessMetrics
}

// NewWebhookUseCaseWithMetrics wraps a WebhookUseCase with metrics recording.
// Successful deliveries are labelled with their outcome.
func NewWebhookUseCaseWithMetrics(useCase WebhookUseCase, m metrics.BusinessMetrics) WebhookUseCase {
	return &webhookUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Handle records metrics for webhook deliveries.
func (w *webhookUseCaseWithMetrics) Handle(
	ctx context.Context,
	body []byte,
	signature string,
) (paymentDomain.Outcome, error) {
	start := time.Now()
	outcome, err := w.next.Handle(ctx, body, signature)

	status := string(outcome)
	switch {
	case errors.Is(err, paymentDomain.ErrInvalidSignature):
		status = "invalid_signature"
	case errors.Is(err, paymentDomain.ErrMalformedPayload):
		status = "malformed"
	case err != nil:
		status = "error"
	}

	w.metrics.RecordOperation(ctx, "payment", "webhook_handle", status)
	w.metrics.RecordDuration(ctx, "payment", "webhook_handle", time.Since(start), status)

	return outcome, err
}
