package commands

import (
	"context"
	"fmt"
	"io"

	notificationDomain "github.com/allisson/enrollments/internal/notification/domain"
)

// QueueLengthReader reads the length of a named overflow queue.
type QueueLengthReader interface {
	Len(ctx context.Context, queue string) (int64, error)
}

// RunQueueStats prints the number of entries waiting in the failed-emails and
// failed-payments queues.
func RunQueueStats(ctx context.Context, reader QueueLengthReader, writer io.Writer, format string) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	queues := []string{notificationDomain.FailedEmailsQueue, notificationDomain.FailedPaymentsQueue}
	lengths := make(map[string]int64, len(queues))
	for _, queue := range queues {
		n, err := reader.Len(ctx, queue)
		if err != nil {
			return fmt.Errorf("failed to read queue stats: %w", err)
		}
		lengths[queue] = n
	}

	if format == "json" {
		return writeJSON(writer, lengths)
	}

	for _, queue := range queues {
		_, _ = fmt.Fprintf(writer, "%-16s %d\n", queue, lengths[queue])
	}
	return nil
}
