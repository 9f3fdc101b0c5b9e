// Package usecase implements the enrollment transition, the course read-through and
// the deferred account deletion scan.
package usecase

import (
	"context"
	"time"

	enrollmentDomain "github.com/allisson/enrollments/internal/enrollment/domain"
)

// CourseRepository defines the course side of the authoritative store.
// Writes performed with a context obtained from database.TxManager join its unit of work.
type CourseRepository interface {
	GetByID(ctx context.Context, courseID string) (*enrollmentDomain.Course, error)
	// IsEnrolled checks the relation in the store, never a cache.
	IsEnrolled(ctx context.Context, courseID, userID string) (bool, error)
	// AddStudent adds userID to the course's enrolled set. Re-adding is a no-op.
	AddStudent(ctx context.Context, courseID, userID string) error
	// RemoveStudent removes userID from the enrolled set of every course.
	RemoveStudent(ctx context.Context, userID string) error
}

// UserRepository defines the user side of the authoritative store.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*enrollmentDomain.User, error)
	// AddCourse adds courseID to the user's enrolled-course set. Re-adding is a no-op.
	AddCourse(ctx context.Context, userID, courseID string) error
	ScheduleDeletion(ctx context.Context, userID string, at time.Time) error
	ListScheduledForDeletion(ctx context.Context, before time.Time, limit int) ([]*enrollmentDomain.User, error)
	Delete(ctx context.Context, userID string) error
}

// CourseCache is the advisory snapshot cache. It is never consulted for
// enrollment decisions and is invalidated, not updated, on mutation.
type CourseCache interface {
	GetCourse(ctx context.Context, courseID string) (*enrollmentDomain.Course, error)
	SetCourse(ctx context.Context, course *enrollmentDomain.Course) error
	InvalidateCourse(ctx context.Context, courseID string) error
	InvalidateUser(ctx context.Context, userID string) error
}

// EnrollmentUseCase defines the enrollment business operations.
type EnrollmentUseCase interface {
	// Enroll atomically adds the user to the course and the course to the user.
	// Failures are returned wrapped in enrollmentDomain.ErrEnrollmentFailed.
	Enroll(ctx context.Context, courseID, userID string) (*enrollmentDomain.Enrollment, error)
	// GetCourse returns a course snapshot, served from the cache when present.
	GetCourse(ctx context.Context, courseID string) (*enrollmentDomain.Course, error)
	// IsEnrolled reports whether the user is enrolled, read from the store.
	IsEnrolled(ctx context.Context, courseID, userID string) (bool, error)
}

// AccountDeletionUseCase defines deferred account deletion operations.
type AccountDeletionUseCase interface {
	// Schedule marks the user for deletion once the grace period elapses.
	Schedule(ctx context.Context, userID string) (time.Time, error)
	// DeleteScheduled deletes every user whose deletion date has passed. With dryRun
	// it only reports the users that would be deleted.
	DeleteScheduled(ctx context.Context, dryRun bool) (enrollmentDomain.DeletionResult, error)
}
