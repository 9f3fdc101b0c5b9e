package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	validation "github.com/jellydator/validation"

	enrollmentUseCase "github.com/allisson/enrollments/internal/enrollment/usecase"
	apperrors "github.com/allisson/enrollments/internal/errors"
	paymentDomain "github.com/allisson/enrollments/internal/payment/domain"
	paymentService "github.com/allisson/enrollments/internal/payment/service"
	customValidation "github.com/allisson/enrollments/internal/validation"
)

// WebhookConfig holds the receiver settings.
type WebhookConfig struct {
	// Timeout bounds the whole delivery. Zero disables the bound.
	Timeout time.Duration
	// IdempotencyTTL is the retention of processed marks.
	IdempotencyTTL time.Duration
	// DispatchTimeout bounds the notification hand-off. It is detached from the
	// delivery deadline so a slow enrollment cannot cut the retry schedule short.
	// Zero leaves it unbounded.
	DispatchTimeout time.Duration
}

type webhookUseCase struct {
	config            WebhookConfig
	verifier          paymentService.SignatureVerifier
	ledger            LedgerRepository
	failedPayments    FailedPaymentRepository
	enrollmentUseCase enrollmentUseCase.EnrollmentUseCase
	dispatcher        NotificationDispatcher
	logger            *slog.Logger
	now               func() time.Time
}

// NewWebhookUseCase creates the webhook receiver.
func NewWebhookUseCase(
	config WebhookConfig,
	verifier paymentService.SignatureVerifier,
	ledger LedgerRepository,
	failedPayments FailedPaymentRepository,
	enrollmentUseCase enrollmentUseCase.EnrollmentUseCase,
	dispatcher NotificationDispatcher,
	logger *slog.Logger,
) WebhookUseCase {
	return &webhookUseCase{
		config:            config,
		verifier:          verifier,
		ledger:            ledger,
		failedPayments:    failedPayments,
		enrollmentUseCase: enrollmentUseCase,
		dispatcher:        dispatcher,
		logger:            logger,
		now:               time.Now,
	}
}

// Handle runs signature check, idempotency check, then the event branch.
// Steps for one event are strictly sequential: enroll, mark, dispatch.
func (w *webhookUseCase) Handle(
	ctx context.Context,
	body []byte,
	signature string,
) (paymentDomain.Outcome, error) {
	if w.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.config.Timeout)
		defer cancel()
	}

	if err := w.verifier.Verify(body, signature); err != nil {
		return "", err
	}

	var payload paymentDomain.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", apperrors.Wrap(paymentDomain.ErrMalformedPayload, err.Error())
	}
	event := payload.ToEvent()
	if err := validateEventID(event); err != nil {
		return "", err
	}

	logger := w.logger.With(
		slog.String("event_id", event.ID),
		slog.String("event_type", string(event.Type)),
	)

	processed, err := w.ledger.IsProcessed(ctx, event.ID)
	if err != nil {
		return "", err
	}
	if processed {
		logger.Info("duplicate webhook ignored")
		return paymentDomain.OutcomeDuplicate, nil
	}

	switch event.Type {
	case paymentDomain.EventPaymentFailed:
		return w.handlePaymentFailed(ctx, event, logger)
	case paymentDomain.EventPaymentAuthorized:
		return w.handlePaymentAuthorized(ctx, event, logger)
	default:
		logger.Warn("unhandled webhook event type")
		return paymentDomain.OutcomeUnhandled, nil
	}
}

func (w *webhookUseCase) handlePaymentFailed(
	ctx context.Context,
	event *paymentDomain.Event,
	logger *slog.Logger,
) (paymentDomain.Outcome, error) {
	err := w.failedPayments.Record(ctx, &paymentDomain.FailedPayment{
		PaymentID: event.ID,
		UserID:    event.UserID,
		CourseID:  event.CourseID,
		FailedAt:  w.now().UTC(),
	})
	if err != nil {
		return "", err
	}

	logger.Info("payment failed recorded",
		slog.String("course_id", event.CourseID),
		slog.String("user_id", event.UserID),
	)
	return paymentDomain.OutcomePaymentFailed, nil
}

func (w *webhookUseCase) handlePaymentAuthorized(
	ctx context.Context,
	event *paymentDomain.Event,
	logger *slog.Logger,
) (paymentDomain.Outcome, error) {
	if err := validateEnrollmentNotes(event); err != nil {
		return "", err
	}

	logger = logger.With(
		slog.String("course_id", event.CourseID),
		slog.String("user_id", event.UserID),
	)

	enrollment, err := w.enrollmentUseCase.Enroll(ctx, event.CourseID, event.UserID)
	if err != nil {
		return "", err
	}

	if err := w.ledger.MarkProcessed(ctx, event.ID, w.config.IdempotencyTTL); err != nil {
		return "", err
	}

	// An existing relation means an earlier delivery committed but may have died
	// before dispatching, so the notification is still handed off.
	dispatchCtx, cancel := w.dispatchContext(ctx)
	defer cancel()
	status := w.dispatcher.Dispatch(dispatchCtx, enrollment.User.Email, event.CourseID)

	logger.Info("user enrolled",
		slog.Bool("already_enrolled", enrollment.AlreadyEnrolled),
		slog.String("notification", string(status)),
	)
	return paymentDomain.OutcomeEnrolled, nil
}

func (w *webhookUseCase) dispatchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if w.config.DispatchTimeout > 0 {
		return context.WithTimeout(detached, w.config.DispatchTimeout)
	}
	return detached, func() {}
}

func validateEventID(event *paymentDomain.Event) error {
	err := validation.ValidateStruct(event,
		validation.Field(&event.ID, validation.Required, customValidation.NotBlank),
	)
	if err != nil {
		return apperrors.Wrap(paymentDomain.ErrMalformedPayload, err.Error())
	}
	return nil
}

func validateEnrollmentNotes(event *paymentDomain.Event) error {
	err := validation.ValidateStruct(event,
		validation.Field(&event.CourseID, validation.Required, customValidation.ResourceID),
		validation.Field(&event.UserID, validation.Required, customValidation.ResourceID),
	)
	if err != nil {
		return apperrors.Wrap(paymentDomain.ErrMalformedPayload, err.Error())
	}
	return nil
}
