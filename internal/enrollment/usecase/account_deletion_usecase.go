package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/allisson/enrollments/internal/database"
	enrollmentDomain "github.com/allisson/enrollments/internal/enrollment/domain"
)

// AccountDeletionConfig holds deferred account deletion settings.
type AccountDeletionConfig struct {
	GracePeriod time.Duration
	BatchSize   int
}

// accountDeletionUseCase implements the AccountDeletionUseCase interface.
type accountDeletionUseCase struct {
	config     AccountDeletionConfig
	txManager  database.TxManager
	courseRepo CourseRepository
	userRepo   UserRepository
	cache      CourseCache
	logger     *slog.Logger
	now        func() time.Time
}

// Schedule sets the user's deletion date to now plus the grace period.
func (a *accountDeletionUseCase) Schedule(ctx context.Context, userID string) (time.Time, error) {
	if strings.TrimSpace(userID) == "" {
		return time.Time{}, enrollmentDomain.ErrInvalidID
	}

	at := a.now().UTC().Add(a.config.GracePeriod)
	if err := a.userRepo.ScheduleDeletion(ctx, userID, at); err != nil {
		return time.Time{}, err
	}

	if err := a.cache.InvalidateUser(ctx, userID); err != nil {
		a.logger.Warn("failed to invalidate cached user",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}

	a.logger.Info("account deletion scheduled",
		slog.String("user_id", userID),
		slog.Time("scheduled_for", at),
	)

	return at, nil
}

// DeleteScheduled removes each due user from every course's enrolled set and
// deletes the user, one unit of work per user. A failing user is logged and
// left for the next scan.
func (a *accountDeletionUseCase) DeleteScheduled(ctx context.Context, dryRun bool) (enrollmentDomain.DeletionResult, error) {
	result := enrollmentDomain.DeletionResult{UserIDs: []string{}}

	users, err := a.userRepo.ListScheduledForDeletion(ctx, a.now().UTC(), a.config.BatchSize)
	if err != nil {
		return result, err
	}
	result.Scanned = len(users)

	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if dryRun {
			result.UserIDs = append(result.UserIDs, user.ID)
			continue
		}

		err := a.txManager.WithTx(ctx, func(txCtx context.Context) error {
			if err := a.courseRepo.RemoveStudent(txCtx, user.ID); err != nil {
				return err
			}
			return a.userRepo.Delete(txCtx, user.ID)
		})
		if err != nil {
			result.Failed++
			a.logger.Error("failed to delete scheduled account",
				slog.String("user_id", user.ID),
				slog.Any("error", err),
			)
			continue
		}

		result.Deleted++
		result.UserIDs = append(result.UserIDs, user.ID)
		a.invalidate(ctx, user)
	}

	if result.Scanned > 0 {
		a.logger.Info("scheduled account deletion finished",
			slog.Int("scanned", result.Scanned),
			slog.Int("deleted", result.Deleted),
			slog.Int("failed", result.Failed),
			slog.Bool("dry_run", dryRun),
		)
	}

	return result, nil
}

func (a *accountDeletionUseCase) invalidate(ctx context.Context, user *enrollmentDomain.User) {
	if err := a.cache.InvalidateUser(ctx, user.ID); err != nil {
		a.logger.Warn("failed to invalidate cached user",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}
	for _, courseID := range user.Courses {
		if err := a.cache.InvalidateCourse(ctx, courseID); err != nil {
			a.logger.Warn("failed to invalidate cached course",
				slog.String("course_id", courseID),
				slog.Any("error", err),
			)
		}
	}
}

// NewAccountDeletionUseCase creates a new AccountDeletionUseCase.
func NewAccountDeletionUseCase(
	config AccountDeletionConfig,
	txManager database.TxManager,
	courseRepo CourseRepository,
	userRepo UserRepository,
	cache CourseCache,
	logger *slog.Logger,
) AccountDeletionUseCase {
	return &accountDeletionUseCase{
		config:     config,
		txManager:  txManager,
		courseRepo: courseRepo,
		userRepo:   userRepo,
		cache:      cache,
		logger:     logger,
		now:        time.Now,
	}
}
