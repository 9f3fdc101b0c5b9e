package usecase

import (
	"context"
	"time"

	enrollmentDomain "github.com/allisson/enrollments/internal/enrollment/domain"
	"github.com/allisson/enrollments/internal/metrics"
)

const metricsDomain = "enrollment"

// enrollmentUseCaseWithMetrics decorates EnrollmentUseCase with metrics instrumentation.
type enrollmentUseCaseWithMetrics struct {
	next    EnrollmentUseCase
	metrics metrics.BusinessMetrics
}

// NewEnrollmentUseCaseWithMetrics wraps an EnrollmentUseCase with metrics recording.
func NewEnrollmentUseCaseWithMetrics(useCase EnrollmentUseCase, m metrics.BusinessMetrics) EnrollmentUseCase {
	return &enrollmentUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Enroll records metrics for enrollment transitions. Existing relations are
// reported with the "already_enrolled" status.
func (e *enrollmentUseCaseWithMetrics) Enroll(
	ctx context.Context,
	courseID, userID string,
) (*enrollmentDomain.Enrollment, error) {
	start := time.Now()
	enrollment, err := e.next.Enroll(ctx, courseID, userID)

	status := "success"
	switch {
	case err != nil:
		status = "error"
	case enrollment != nil && enrollment.AlreadyEnrolled:
		status = "already_enrolled"
	}

	e.record(ctx, "enroll", start, status)
	return enrollment, err
}

// GetCourse records metrics for course reads.
func (e *enrollmentUseCaseWithMetrics) GetCourse(
	ctx context.Context,
	courseID string,
) (*enrollmentDomain.Course, error) {
	start := time.Now()
	course, err := e.next.GetCourse(ctx, courseID)
	e.record(ctx, "course_get", start, statusOf(err))
	return course, err
}

// IsEnrolled records metrics for enrollment checks.
func (e *enrollmentUseCaseWithMetrics) IsEnrolled(ctx context.Context, courseID, userID string) (bool, error) {
	start := time.Now()
	enrolled, err := e.next.IsEnrolled(ctx, courseID, userID)
	e.record(ctx, "enrollment_check", start, statusOf(err))
	return enrolled, err
}

func (e *enrollmentUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, status string) {
	e.metrics.RecordOperation(ctx, metricsDomain, operation, status)
	e.metrics.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

// accountDeletionUseCaseWithMetrics decorates AccountDeletionUseCase with metrics instrumentation.
type accountDeletionUseCaseWithMetrics struct {
	next    AccountDeletionUseCase
	metrics metrics.BusinessMetrics
}

// NewAccountDeletionUseCaseWithMetrics wraps an AccountDeletionUseCase with metrics recording.
func NewAccountDeletionUseCaseWithMetrics(
	useCase AccountDeletionUseCase,
	m metrics.BusinessMetrics,
) AccountDeletionUseCase {
	return &accountDeletionUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Schedule records metrics for deletion scheduling.
func (a *accountDeletionUseCaseWithMetrics) Schedule(ctx context.Context, userID string) (time.Time, error) {
	start := time.Now()
	at, err := a.next.Schedule(ctx, userID)

	status := statusOf(err)
	a.metrics.RecordOperation(ctx, metricsDomain, "account_deletion_schedule", status)
	a.metrics.RecordDuration(ctx, metricsDomain, "account_deletion_schedule", time.Since(start), status)

	return at, err
}

// DeleteScheduled records metrics for deletion scans.
func (a *accountDeletionUseCaseWithMetrics) DeleteScheduled(
	ctx context.Context,
	dryRun bool,
) (enrollmentDomain.DeletionResult, error) {
	start := time.Now()
	result, err := a.next.DeleteScheduled(ctx, dryRun)

	status := statusOf(err)
	if err == nil && result.Failed > 0 {
		status = "partial"
	}
	a.metrics.RecordOperation(ctx, metricsDomain, "account_deletion_scan", status)
	a.metrics.RecordDuration(ctx, metricsDomain, "account_deletion_scan", time.Since(start), status)

	return result, err
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
