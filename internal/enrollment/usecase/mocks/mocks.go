// Package mocks provides mock implementations of the enrollment use case interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	enrollmentDomain "github.com/allisson/enrollments/internal/enrollment/domain"
)

// MockCourseRepository is a mock implementation of CourseRepository.
type MockCourseRepository struct {
	mock.Mock
}

// GetByID mocks the GetByID method of CourseRepository.
func (m *MockCourseRepository) GetByID(ctx context.Context, courseID string) (*enrollmentDomain.Course, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*enrollmentDomain.Course), args.Error(1)
}

// IsEnrolled mocks the IsEnrolled method of CourseRepository.
func (m *MockCourseRepository) IsEnrolled(ctx context.Context, courseID, userID string) (bool, error) {
	args := m.Called(ctx, courseID, userID)
	return args.Bool(0), args.Error(1)
}

// AddStudent mocks the AddStudent method of CourseRepository.
func (m *MockCourseRepository) AddStudent(ctx context.Context, courseID, userID string) error {
	args := m.Called(ctx, courseID, userID)
	return args.Error(0)
}

// RemoveStudent mocks the RemoveStudent method of CourseRepository.
func (m *MockCourseRepository) RemoveStudent(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

// GetByID mocks the GetByID method of UserRepository.
func (m *MockUserRepository) GetByID(ctx context.Context, userID string) (*enrollmentDomain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*enrollmentDomain.User), args.Error(1)
}

// AddCourse mocks the AddCourse method of UserRepository.
func (m *MockUserRepository) AddCourse(ctx context.Context, userID, courseID string) error {
	args := m.Called(ctx, userID, courseID)
	return args.Error(0)
}

// ScheduleDeletion mocks the ScheduleDeletion method of UserRepository.
func (m *MockUserRepository) ScheduleDeletion(ctx context.Context, userID string, at time.Time) error {
	args := m.Called(ctx, userID, at)
	return args.Error(0)
}

// ListScheduledForDeletion mocks the ListScheduledForDeletion method of UserRepository.
func (m *MockUserRepository) ListScheduledForDeletion(
	ctx context.Context,
	before time.Time,
	limit int,
) ([]*enrollmentDomain.User, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*enrollmentDomain.User), args.Error(1)
}

// Delete mocks the Delete method of UserRepository.
func (m *MockUserRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockCourseCache is a mock implementation of CourseCache.
type MockCourseCache struct {
	mock.Mock
}

// GetCourse mocks the GetCourse method of CourseCache.
func (m *MockCourseCache) GetCourse(ctx context.Context, courseID string) (*enrollmentDomain.Course, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*enrollmentDomain.Course), args.Error(1)
}

// SetCourse mocks the SetCourse method of CourseCache.
func (m *MockCourseCache) SetCourse(ctx context.Context, course *enrollmentDomain.Course) error {
	args := m.Called(ctx, course)
	return args.Error(0)
}

// InvalidateCourse mocks the InvalidateCourse method of CourseCache.
func (m *MockCourseCache) InvalidateCourse(ctx context.Context, courseID string) error {
	args := m.Called(ctx, courseID)
	return args.Error(0)
}

// InvalidateUser mocks the InvalidateUser method of CourseCache.
func (m *MockCourseCache) InvalidateUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockEnrollmentUseCase is a mock implementation of EnrollmentUseCase.
type MockEnrollmentUseCase struct {
	mock.Mock
}

// Enroll mocks the Enroll method of EnrollmentUseCase.
func (m *MockEnrollmentUseCase) Enroll(
	ctx context.Context,
	courseID, userID string,
) (*enrollmentDomain.Enrollment, error) {
	args := m.Called(ctx, courseID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*enrollmentDomain.Enrollment), args.Error(1)
}

// GetCourse mocks the GetCourse method of EnrollmentUseCase.
func (m *MockEnrollmentUseCase) GetCourse(ctx context.Context, courseID string) (*enrollmentDomain.Course, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*enrollmentDomain.Course), args.Error(1)
}

// IsEnrolled mocks the IsEnrolled method of EnrollmentUseCase.
func (m *MockEnrollmentUseCase) IsEnrolled(ctx context.Context, courseID, userID string) (bool, error) {
	args := m.Called(ctx, courseID, userID)
	return args.Bool(0), args.Error(1)
}

// MockAccountDeletionUseCase is a mock implementation of AccountDeletionUseCase.
type MockAccountDeletionUseCase struct {
	mock.Mock
}

// Schedule mocks the Schedule method of AccountDeletionUseCase.
func (m *MockAccountDeletionUseCase) Schedule(ctx context.Context, userID string) (time.Time, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(time.Time), args.Error(1)
}

// DeleteScheduled mocks the DeleteScheduled method of AccountDeletionUseCase.
func (m *MockAccountDeletionUseCase) DeleteScheduled(
	ctx context.Context,
	dryRun bool,
) (enrollmentDomain.DeletionResult, error) {
	args := m.Called(ctx, dryRun)
	return args.Get(0).(enrollmentDomain.DeletionResult), args.Error(1)
}
