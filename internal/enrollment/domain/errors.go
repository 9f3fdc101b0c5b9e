package domain

import (
	"github.com/allisson/enrollments/internal/errors"
)

// Enrollment-specific error definitions.
var (
	// ErrCourseNotFound indicates the course does not exist in the authoritative store.
	ErrCourseNotFound = errors.Wrap(errors.ErrNotFound, "course not found")

	// ErrUserNotFound indicates the user does not exist in the authoritative store.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrEnrollmentFailed indicates the enrollment unit of work was aborted.
	// The underlying cause is joined to it.
	ErrEnrollmentFailed = errors.New("enrollment failed")

	// ErrCacheMiss indicates the requested snapshot is not cached.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidID indicates an empty or malformed course or user identifier.
	ErrInvalidID = errors.Wrap(errors.ErrInvalidInput, "invalid identifier")
)
