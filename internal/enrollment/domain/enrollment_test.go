package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/enrollments/internal/errors"
)

func TestAddToSet(t *testing.T) {
	set := AddToSet(nil, "U1")
	set = AddToSet(set, "U2")
	set = AddToSet(set, "U1")

	assert.Equal(t, []string{"U1", "U2"}, set)
}

func TestCourse_HasStudent(t *testing.T) {
	course := &Course{ID: "C1", EnrolledUsers: []string{"U1"}}

	assert.True(t, course.HasStudent("U1"))
	assert.False(t, course.HasStudent("U2"))
}

func TestErrors(t *testing.T) {
	assert.ErrorIs(t, ErrCourseNotFound, apperrors.ErrNotFound)
	assert.ErrorIs(t, ErrUserNotFound, apperrors.ErrNotFound)
	assert.ErrorIs(t, ErrInvalidID, apperrors.ErrInvalidInput)
	assert.NotErrorIs(t, ErrEnrollmentFailed, apperrors.ErrNotFound)
}
