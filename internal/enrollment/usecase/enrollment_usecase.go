package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/allisson/enrollments/internal/database"
	enrollmentDomain "github.com/allisson/enrollments/internal/enrollment/domain"
)

// enrollmentUseCase implements the EnrollmentUseCase interface.
type enrollmentUseCase struct {
	txManager  database.TxManager
	courseRepo CourseRepository
	userRepo   UserRepository
	cache      CourseCache
	logger     *slog.Logger
}

// Enroll runs the enrollment transition in one unit of work. Both set-adds are
// duplicate-safe, so re-running it for an existing relation writes nothing new.
// Cache entries for the course and the user are invalidated after commit.
func (e *enrollmentUseCase) Enroll(
	ctx context.Context,
	courseID, userID string,
) (*enrollmentDomain.Enrollment, error) {
	if err := validateIDs(courseID, userID); err != nil {
		return nil, fmt.Errorf("%w: %w", enrollmentDomain.ErrEnrollmentFailed, err)
	}

	var enrollment *enrollmentDomain.Enrollment
	err := e.txManager.WithTx(ctx, func(txCtx context.Context) error {
		course, err := e.courseRepo.GetByID(txCtx, courseID)
		if err != nil {
			return err
		}

		user, err := e.userRepo.GetByID(txCtx, userID)
		if err != nil {
			return err
		}

		enrolled, err := e.courseRepo.IsEnrolled(txCtx, courseID, userID)
		if err != nil {
			return err
		}
		if enrolled {
			enrollment = &enrollmentDomain.Enrollment{Course: course, User: user, AlreadyEnrolled: true}
			return nil
		}

		if err := e.courseRepo.AddStudent(txCtx, courseID, userID); err != nil {
			return err
		}
		if err := e.userRepo.AddCourse(txCtx, userID, courseID); err != nil {
			return err
		}

		course.EnrolledUsers = enrollmentDomain.AddToSet(course.EnrolledUsers, userID)
		user.Courses = enrollmentDomain.AddToSet(user.Courses, courseID)
		enrollment = &enrollmentDomain.Enrollment{Course: course, User: user}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", enrollmentDomain.ErrEnrollmentFailed, err)
	}

	// An earlier delivery may have committed without reaching this point, so
	// invalidation also runs for an existing relation.
	e.invalidate(ctx, courseID, userID)

	return enrollment, nil
}

// GetCourse serves the course from the cache, falling back to the store and
// refilling the cache on a miss. Cache failures degrade to a store read.
func (e *enrollmentUseCase) GetCourse(ctx context.Context, courseID string) (*enrollmentDomain.Course, error) {
	if strings.TrimSpace(courseID) == "" {
		return nil, enrollmentDomain.ErrInvalidID
	}

	course, err := e.cache.GetCourse(ctx, courseID)
	if err == nil {
		return course, nil
	}
	if !errors.Is(err, enrollmentDomain.ErrCacheMiss) {
		e.logger.Warn("course cache read failed",
			slog.String("course_id", courseID),
			slog.Any("error", err),
		)
	}

	course, err = e.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if err := e.cache.SetCourse(ctx, course); err != nil {
		e.logger.Warn("course cache fill failed",
			slog.String("course_id", courseID),
			slog.Any("error", err),
		)
	}

	return course, nil
}

// IsEnrolled reads the relation from the store.
func (e *enrollmentUseCase) IsEnrolled(ctx context.Context, courseID, userID string) (bool, error) {
	if err := validateIDs(courseID, userID); err != nil {
		return false, err
	}

	if _, err := e.courseRepo.GetByID(ctx, courseID); err != nil {
		return false, err
	}

	return e.courseRepo.IsEnrolled(ctx, courseID, userID)
}

// invalidate drops the cached course and profile snapshots. Failures are logged;
// stale entries then expire with their TTL.
func (e *enrollmentUseCase) invalidate(ctx context.Context, courseID, userID string) {
	if err := e.cache.InvalidateCourse(ctx, courseID); err != nil {
		e.logger.Error("failed to invalidate cached course",
			slog.String("course_id", courseID),
			slog.Any("error", err),
		)
	}
	if err := e.cache.InvalidateUser(ctx, userID); err != nil {
		e.logger.Error("failed to invalidate cached user",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}
}

func validateIDs(courseID, userID string) error {
	if strings.TrimSpace(courseID) == "" || strings.TrimSpace(userID) == "" {
		return enrollmentDomain.ErrInvalidID
	}
	return nil
}

// NewEnrollmentUseCase creates a new EnrollmentUseCase.
func NewEnrollmentUseCase(
	txManager database.TxManager,
	courseRepo CourseRepository,
	userRepo UserRepository,
	cache CourseCache,
	logger *slog.Logger,
) EnrollmentUseCase {
	return &enrollmentUseCase{
		txManager:  txManager,
		courseRepo: courseRepo,
		userRepo:   userRepo,
		cache:      cache,
		logger:     logger,
	}
}
