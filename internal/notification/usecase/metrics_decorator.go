package usecase

import (
	"context"
	"time"

	"github.com/allisson/enrollments/internal/metrics"
	notificationDomain "github.com/allisson/enrollments/internal/notification/domain"
)

const metricsDomain = "notification"

// dispatcherWithMetrics decorates Dispatcher with metrics instrumentation.
type dispatcherWithMetrics struct {
	next    Dispatcher
	metrics metrics.BusinessMetrics
}

// NewDispatcherWithMetrics wraps a Dispatcher. The status label is the dispatch status.
func NewDispatcherWithMetrics(dispatcher Dispatcher, m metrics.BusinessMetrics) Dispatcher {
	return &dispatcherWithMetrics{next: dispatcher, metrics: m}
}

// Dispatch records metrics for notification dispatch.
func (d *dispatcherWithMetrics) Dispatch(
	ctx context.Context,
	email, courseID string,
) notificationDomain.DispatchStatus {
	start := time.Now()
	status := d.next.Dispatch(ctx, email, courseID)

	d.metrics.RecordOperation(ctx, metricsDomain, "dispatch", string(status))
	d.metrics.RecordDuration(ctx, metricsDomain, "dispatch", time.Since(start), string(status))
	return status
}

// sweeperWithMetrics decorates Sweeper with metrics instrumentation.
type sweeperWithMetrics struct {
	next    Sweeper
	metrics metrics.BusinessMetrics
}

// NewSweeperWithMetrics wraps a Sweeper with metrics recording.
func NewSweeperWithMetrics(sweeper Sweeper, m metrics.BusinessMetrics) Sweeper {
	return &sweeperWithMetrics{next: sweeper, metrics: m}
}

// Sweep records metrics for overflow sweeps.
func (s *sweeperWithMetrics) Sweep(ctx context.Context) (notificationDomain.SweepResult, error) {
	start := time.Now()
	result, err := s.next.Sweep(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.RecordOperation(ctx, metricsDomain, "overflow_sweep", status)
	s.metrics.RecordDuration(ctx, metricsDomain, "overflow_sweep", time.Since(start), status)
	return result, err
}
