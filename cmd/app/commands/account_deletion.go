package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	enrollmentUseCase "github.com/allisson/enrollments/internal/enrollment/usecase"
)

// RunDeleteScheduledAccounts runs one deferred deletion scan now. With dryRun it
// only lists the users whose deletion date has passed.
//
// Requirements: Database must be migrated and accessible.
func RunDeleteScheduledAccounts(
	ctx context.Context,
	accountDeletionUseCase enrollmentUseCase.AccountDeletionUseCase,
	logger *slog.Logger,
	writer io.Writer,
	dryRun bool,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("deleting scheduled accounts", slog.Bool("dry_run", dryRun))

	result, err := accountDeletionUseCase.DeleteScheduled(ctx, dryRun)
	if err != nil {
		return fmt.Errorf("failed to delete scheduled accounts: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, map[string]any{
			"scanned":  result.Scanned,
			"deleted":  result.Deleted,
			"failed":   result.Failed,
			"user_ids": result.UserIDs,
			"dry_run":  dryRun,
		}); err != nil {
			return err
		}
	} else if dryRun {
		_, _ = fmt.Fprintf(writer, "Dry-run mode: Would delete %d account(s)\n", result.Scanned)
		if len(result.UserIDs) > 0 {
			_, _ = fmt.Fprintf(writer, "User IDs: %s\n", strings.Join(result.UserIDs, ", "))
		}
	} else {
		_, _ = fmt.Fprintf(writer,
			"Deleted %d of %d scheduled account(s), %d failed\n",
			result.Deleted, result.Scanned, result.Failed,
		)
	}

	return nil
}

// RunScheduleAccountDeletion marks userID for deletion once the grace period elapses.
func RunScheduleAccountDeletion(
	ctx context.Context,
	accountDeletionUseCase enrollmentUseCase.AccountDeletionUseCase,
	logger *slog.Logger,
	writer io.Writer,
	userID string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	at, err := accountDeletionUseCase.Schedule(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to schedule account deletion: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, map[string]any{
			"user_id":                userID,
			"scheduled_for_deletion": at.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(writer,
			"Account %s scheduled for deletion at %s\n",
			userID, at.UTC().Format(time.RFC3339),
		)
	}

	logger.Info("account deletion scheduled",
		slog.String("user_id", userID),
		slog.Time("scheduled_for_deletion", at),
	)

	return nil
}
