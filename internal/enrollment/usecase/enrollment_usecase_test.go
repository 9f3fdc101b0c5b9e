package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	databaseMocks "github.com/allisson/enrollments/internal/database/mocks"
	enrollmentDomain "github.com/allisson/enrollments/internal/enrollment/domain"
	enrollmentRepository "github.com/allisson/enrollments/internal/enrollment/repository"
	enrollmentMocks "github.com/allisson/enrollments/internal/enrollment/usecase/mocks"
)

type enrollmentFixture struct {
	txManager  *databaseMocks.MockTxManager
	courseRepo *enrollmentMocks.MockCourseRepository
	userRepo   *enrollmentMocks.MockUserRepository
	cache      *enrollmentMocks.MockCourseCache
	useCase    EnrollmentUseCase
}

func newEnrollmentFixture(t *testing.T) *enrollmentFixture {
	t.Helper()
	f := &enrollmentFixture{
		txManager:  &databaseMocks.MockTxManager{},
		courseRepo: &enrollmentMocks.MockCourseRepository{},
		userRepo:   &enrollmentMocks.MockUserRepository{},
		cache:      &enrollmentMocks.MockCourseCache{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.useCase = NewEnrollmentUseCase(f.txManager, f.courseRepo, f.userRepo, f.cache, logger)
	t.Cleanup(func() {
		f.txManager.AssertExpectations(t)
		f.courseRepo.AssertExpectations(t)
		f.userRepo.AssertExpectations(t)
		f.cache.AssertExpectations(t)
	})
	return f
}

func (f *enrollmentFixture) expectTx() {
	f.txManager.On("WithTx", mock.Anything, mock.AnythingOfType("func(context.Context) error")).
		Return(nil).
		Once()
}

func TestEnrollmentUseCase_Enroll(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_AddsBothSides", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		f.expectTx()

		f.courseRepo.On("GetByID", mock.Anything, "C1").
			Return(&enrollmentDomain.Course{ID: "C1", Name: "Go"}, nil).Once()
		f.userRepo.On("GetByID", mock.Anything, "U1").
			Return(&enrollmentDomain.User{ID: "U1", Email: "u1@example.com"}, nil).Once()
		f.courseRepo.On("IsEnrolled", mock.Anything, "C1", "U1").Return(false, nil).Once()
		f.courseRepo.On("AddStudent", mock.Anything, "C1", "U1").Return(nil).Once()
		f.userRepo.On("AddCourse", mock.Anything, "U1", "C1").Return(nil).Once()
		f.cache.On("InvalidateCourse", ctx, "C1").Return(nil).Once()
		f.cache.On("InvalidateUser", ctx, "U1").Return(nil).Once()

		enrollment, err := f.useCase.Enroll(ctx, "C1", "U1")

		require.NoError(t, err)
		assert.False(t, enrollment.AlreadyEnrolled)
		assert.Equal(t, []string{"U1"}, enrollment.Course.EnrolledUsers)
		assert.Equal(t, []string{"C1"}, enrollment.User.Courses)
	})

	t.Run("Success_AlreadyEnrolledWritesNothing", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		f.expectTx()

		f.courseRepo.On("GetByID", mock.Anything, "C1").
			Return(&enrollmentDomain.Course{ID: "C1", EnrolledUsers: []string{"U1"}}, nil).Once()
		f.userRepo.On("GetByID", mock.Anything, "U1").
			Return(&enrollmentDomain.User{ID: "U1", Courses: []string{"C1"}}, nil).Once()
		f.courseRepo.On("IsEnrolled", mock.Anything, "C1", "U1").Return(true, nil).Once()
		f.cache.On("InvalidateCourse", ctx, "C1").Return(nil).Once()
		f.cache.On("InvalidateUser", ctx, "U1").Return(nil).Once()

		enrollment, err := f.useCase.Enroll(ctx, "C1", "U1")

		require.NoError(t, err)
		assert.True(t, enrollment.AlreadyEnrolled)
		assert.Equal(t, []string{"U1"}, enrollment.Course.EnrolledUsers)
		f.courseRepo.AssertNotCalled(t, "AddStudent", mock.Anything, mock.Anything, mock.Anything)
		f.userRepo.AssertNotCalled(t, "AddCourse", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error_CourseNotFound", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		f.expectTx()

		f.courseRepo.On("GetByID", mock.Anything, "C404").
			Return(nil, enrollmentDomain.ErrCourseNotFound).Once()

		enrollment, err := f.useCase.Enroll(ctx, "C404", "U1")

		assert.Nil(t, enrollment)
		assert.ErrorIs(t, err, enrollmentDomain.ErrEnrollmentFailed)
		assert.ErrorIs(t, err, enrollmentDomain.ErrCourseNotFound)
		f.cache.AssertNotCalled(t, "InvalidateCourse", mock.Anything, mock.Anything)
	})

	t.Run("Error_UserNotFound", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		f.expectTx()

		f.courseRepo.On("GetByID", mock.Anything, "C1").
			Return(&enrollmentDomain.Course{ID: "C1"}, nil).Once()
		f.userRepo.On("GetByID", mock.Anything, "U404").
			Return(nil, enrollmentDomain.ErrUserNotFound).Once()

		_, err := f.useCase.Enroll(ctx, "C1", "U404")

		assert.ErrorIs(t, err, enrollmentDomain.ErrEnrollmentFailed)
		assert.ErrorIs(t, err, enrollmentDomain.ErrUserNotFound)
	})

	t.Run("Error_SecondWriteFailsAbortsUnitOfWork", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		f.expectTx()

		writeErr := errors.New("write conflict")
		f.courseRepo.On("GetByID", mock.Anything, "C1").
			Return(&enrollmentDomain.Course{ID: "C1"}, nil).Once()
		f.userRepo.On("GetByID", mock.Anything, "U1").
			Return(&enrollmentDomain.User{ID: "U1"}, nil).Once()
		f.courseRepo.On("IsEnrolled", mock.Anything, "C1", "U1").Return(false, nil).Once()
		f.courseRepo.On("AddStudent", mock.Anything, "C1", "U1").Return(nil).Once()
		f.userRepo.On("AddCourse", mock.Anything, "U1", "C1").Return(writeErr).Once()

		enrollment, err := f.useCase.Enroll(ctx, "C1", "U1")

		assert.Nil(t, enrollment)
		assert.ErrorIs(t, err, enrollmentDomain.ErrEnrollmentFailed)
		assert.ErrorIs(t, err, writeErr)
		f.cache.AssertNotCalled(t, "InvalidateCourse", mock.Anything, mock.Anything)
		f.cache.AssertNotCalled(t, "InvalidateUser", mock.Anything, mock.Anything)
	})

	t.Run("Error_BeginFails", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		f.txManager.On("WithTx", mock.Anything, mock.Anything).Return(context.DeadlineExceeded).Once()

		_, err := f.useCase.Enroll(ctx, "C1", "U1")

		assert.ErrorIs(t, err, enrollmentDomain.ErrEnrollmentFailed)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("Error_InvalidIDs", func(t *testing.T) {
		f := newEnrollmentFixture(t)

		_, err := f.useCase.Enroll(ctx, " ", "U1")

		assert.ErrorIs(t, err, enrollmentDomain.ErrEnrollmentFailed)
		assert.ErrorIs(t, err, enrollmentDomain.ErrInvalidID)
	})

	t.Run("Success_InvalidationFailureIsLogged", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		f.expectTx()

		f.courseRepo.On("GetByID", mock.Anything, "C1").
			Return(&enrollmentDomain.Course{ID: "C1"}, nil).Once()
		f.userRepo.On("GetByID", mock.Anything, "U1").
			Return(&enrollmentDomain.User{ID: "U1"}, nil).Once()
		f.courseRepo.On("IsEnrolled", mock.Anything, "C1", "U1").Return(false, nil).Once()
		f.courseRepo.On("AddStudent", mock.Anything, "C1", "U1").Return(nil).Once()
		f.userRepo.On("AddCourse", mock.Anything, "U1", "C1").Return(nil).Once()
		f.cache.On("InvalidateCourse", ctx, "C1").Return(errors.New("redis down")).Once()
		f.cache.On("InvalidateUser", ctx, "U1").Return(errors.New("redis down")).Once()

		enrollment, err := f.useCase.Enroll(ctx, "C1", "U1")

		require.NoError(t, err)
		assert.NotNil(t, enrollment)
	})
}

func TestEnrollmentUseCase_GetCourse(t *testing.T) {
	ctx := context.Background()
	course := &enrollmentDomain.Course{ID: "C1", Name: "Go"}

	t.Run("Success_CacheHit", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		f.cache.On("GetCourse", ctx, "C1").Return(course, nil).Once()

		got, err := f.useCase.GetCourse(ctx, "C1")

		require.NoError(t, err)
		assert.Equal(t, course, got)
		f.courseRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("Success_CacheMissFillsCache", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		f.cache.On("GetCourse", ctx, "C1").Return(nil, enrollmentDomain.ErrCacheMiss).Once()
		f.courseRepo.On("GetByID", ctx, "C1").Return(course, nil).Once()
		f.cache.On("SetCourse", ctx, course).Return(nil).Once()

		got, err := f.useCase.GetCourse(ctx, "C1")

		require.NoError(t, err)
		assert.Equal(t, course, got)
	})

	t.Run("Success_CacheErrorFallsBackToStore", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		f.cache.On("GetCourse", ctx, "C1").Return(nil, errors.New("redis down")).Once()
		f.courseRepo.On("GetByID", ctx, "C1").Return(course, nil).Once()
		f.cache.On("SetCourse", ctx, course).Return(errors.New("redis down")).Once()

		got, err := f.useCase.GetCourse(ctx, "C1")

		require.NoError(t, err)
		assert.Equal(t, course, got)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		f.cache.On("GetCourse", ctx, "C404").Return(nil, enrollmentDomain.ErrCacheMiss).Once()
		f.courseRepo.On("GetByID", ctx, "C404").Return(nil, enrollmentDomain.ErrCourseNotFound).Once()

		_, err := f.useCase.GetCourse(ctx, "C404")

		assert.ErrorIs(t, err, enrollmentDomain.ErrCourseNotFound)
	})

	t.Run("Error_EmptyID", func(t *testing.T) {
		f := newEnrollmentFixture(t)

		_, err := f.useCase.GetCourse(ctx, "")

		assert.ErrorIs(t, err, enrollmentDomain.ErrInvalidID)
	})
}

func TestEnrollmentUseCase_IsEnrolled(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		f.courseRepo.On("GetByID", ctx, "C1").Return(&enrollmentDomain.Course{ID: "C1"}, nil).Once()
		f.courseRepo.On("IsEnrolled", ctx, "C1", "U1").Return(true, nil).Once()

		enrolled, err := f.useCase.IsEnrolled(ctx, "C1", "U1")

		require.NoError(t, err)
		assert.True(t, enrolled)
	})

	t.Run("Error_CourseNotFound", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		f.courseRepo.On("GetByID", ctx, "C404").Return(nil, enrollmentDomain.ErrCourseNotFound).Once()

		_, err := f.useCase.IsEnrolled(ctx, "C404", "U1")

		assert.ErrorIs(t, err, enrollmentDomain.ErrCourseNotFound)
	})
}

func TestEnrollmentUseCase_Enroll_CachedCourseIsNotServedStale(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	txManager := &databaseMocks.MockTxManager{}
	courseRepo := &enrollmentMocks.MockCourseRepository{}
	userRepo := &enrollmentMocks.MockUserRepository{}
	courseCache := enrollmentRepository.NewRedisCourseCache(client, time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	useCase := NewEnrollmentUseCase(txManager, courseRepo, userRepo, courseCache, logger)

	// Snapshot cached before the enrollment.
	require.NoError(t, courseCache.SetCourse(ctx, &enrollmentDomain.Course{ID: "C1", Name: "Go", EnrolledUsers: []string{}}))
	cached, err := useCase.GetCourse(ctx, "C1")
	require.NoError(t, err)
	require.Empty(t, cached.EnrolledUsers)

	txManager.On("WithTx", mock.Anything, mock.AnythingOfType("func(context.Context) error")).Return(nil).Once()
	courseRepo.On("GetByID", mock.Anything, "C1").
		Return(&enrollmentDomain.Course{ID: "C1", Name: "Go", EnrolledUsers: []string{}}, nil).Once()
	userRepo.On("GetByID", mock.Anything, "U1").
		Return(&enrollmentDomain.User{ID: "U1", Email: "u1@example.com"}, nil).Once()
	courseRepo.On("IsEnrolled", mock.Anything, "C1", "U1").Return(false, nil).Once()
	courseRepo.On("AddStudent", mock.Anything, "C1", "U1").Return(nil).Once()
	userRepo.On("AddCourse", mock.Anything, "U1", "C1").Return(nil).Once()
	// The store after commit.
	courseRepo.On("GetByID", mock.Anything, "C1").
		Return(&enrollmentDomain.Course{ID: "C1", Name: "Go", EnrolledUsers: []string{"U1"}}, nil).Once()

	_, err = useCase.Enroll(ctx, "C1", "U1")
	require.NoError(t, err)

	course, err := useCase.GetCourse(ctx, "C1")

	require.NoError(t, err)
	assert.Equal(t, []string{"U1"}, course.EnrolledUsers)

	refilled, err := courseCache.GetCourse(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, []string{"U1"}, refilled.EnrolledUsers)

	txManager.AssertExpectations(t)
	courseRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}
