package service

import (
	"context"
	"log/slog"

	notificationDomain "github.com/allisson/enrollments/internal/notification/domain"
)

type logNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a Notifier that records the enrollment email it would send.
// Mail rendering and delivery live outside this service.
func NewLogNotifier(logger *slog.Logger) Notifier {
	return &logNotifier{logger: logger}
}

// Notify logs the notification.
func (n *logNotifier) Notify(ctx context.Context, msg notificationDomain.EnrollmentMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.logger.InfoContext(ctx, "enrollment notification sent",
		slog.String("email", msg.Email),
		slog.String("course_id", msg.CourseID),
	)
	return nil
}
