package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	notificationUseCase "github.com/allisson/enrollments/internal/notification/usecase"
)

// RunRetryFailedEmails runs one sweep of the failed-emails queue now and reports
// how many notifications were re-published.
//
// Requirements: Redis and RabbitMQ must be reachable.
func RunRetryFailedEmails(
	ctx context.Context,
	sweeper notificationUseCase.Sweeper,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("retrying failed emails")

	result, err := sweeper.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("failed to retry failed emails: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, result); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(writer,
			"Swept %s: %d scanned, %d published, %d requeued, %d dropped\n",
			result.Queue, result.Scanned, result.Published, result.Requeued, result.Dropped,
		)
	}

	logger.Info("retry completed",
		slog.Int("scanned", result.Scanned),
		slog.Int("published", result.Published),
		slog.Int("requeued", result.Requeued),
	)

	return nil
}
