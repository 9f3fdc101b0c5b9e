package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	enrollmentDomain "github.com/allisson/enrollments/internal/enrollment/domain"
	"github.com/allisson/enrollments/internal/enrollment/http/dto"
	"github.com/allisson/enrollments/internal/enrollment/usecase/mocks"
	apperrors "github.com/allisson/enrollments/internal/errors"
	"github.com/allisson/enrollments/internal/httputil"
)

func setupCourseHandler(t *testing.T) (*gin.Engine, *mocks.MockEnrollmentUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	useCase := &mocks.MockEnrollmentUseCase{}
	t.Cleanup(func() { useCase.AssertExpectations(t) })

	handler := NewCourseHandler(useCase, slog.New(slog.NewTextHandler(io.Discard, nil)))

	router := gin.New()
	router.GET("/v1/courses/:id", handler.GetHandler)
	router.GET("/v1/courses/:id/students", handler.ListStudentsHandler)
	router.GET("/v1/courses/:id/enrollments/:userId", handler.GetEnrollmentHandler)

	return router, useCase
}

func doRequest(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func testCourse() *enrollmentDomain.Course {
	return &enrollmentDomain.Course{
		ID:            "C1",
		Name:          "Go",
		Description:   "Concurrency patterns",
		Price:         49900,
		EnrolledUsers: []string{"U1", "U2", "U3"},
		UpdatedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCourseHandler_GetHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		router, useCase := setupCourseHandler(t)
		useCase.On("GetCourse", mock.Anything, "C1").Return(testCourse(), nil).Once()

		w := doRequest(router, http.MethodGet, "/v1/courses/C1")

		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.CourseResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "C1", resp.ID)
		assert.Equal(t, int64(49900), resp.Price)
		assert.Equal(t, 3, resp.StudentsCount)
	})

	t.Run("NotFound", func(t *testing.T) {
		router, useCase := setupCourseHandler(t)
		useCase.On("GetCourse", mock.Anything, "C9").Return(nil, enrollmentDomain.ErrCourseNotFound).Once()

		w := doRequest(router, http.MethodGet, "/v1/courses/C9")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("InvalidID", func(t *testing.T) {
		router, _ := setupCourseHandler(t)

		w := doRequest(router, http.MethodGet, "/v1/courses/C1;drop")

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var resp httputil.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "validation_error", resp.Error)
	})

	t.Run("StoreUnavailable", func(t *testing.T) {
		router, useCase := setupCourseHandler(t)
		useCase.On("GetCourse", mock.Anything, "C1").
			Return(nil, apperrors.Wrap(apperrors.ErrUnavailable, "store down")).
			Once()

		w := doRequest(router, http.MethodGet, "/v1/courses/C1")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestCourseHandler_ListStudentsHandler(t *testing.T) {
	t.Run("Paginated", func(t *testing.T) {
		router, useCase := setupCourseHandler(t)
		useCase.On("GetCourse", mock.Anything, "C1").Return(testCourse(), nil).Once()

		w := doRequest(router, http.MethodGet, "/v1/courses/C1/students?offset=1&limit=1")

		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.ListStudentsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, []string{"U2"}, resp.Data)
		assert.Equal(t, 3, resp.Total)
	})

	t.Run("InvalidPagination", func(t *testing.T) {
		router, _ := setupCourseHandler(t)

		w := doRequest(router, http.MethodGet, "/v1/courses/C1/students?limit=500")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCourseHandler_GetEnrollmentHandler(t *testing.T) {
	t.Run("Enrolled", func(t *testing.T) {
		router, useCase := setupCourseHandler(t)
		useCase.On("IsEnrolled", mock.Anything, "C1", "U1").Return(true, nil).Once()

		w := doRequest(router, http.MethodGet, "/v1/courses/C1/enrollments/U1")

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"course_id":"C1","user_id":"U1","enrolled":true}`, w.Body.String())
	})

	t.Run("NotEnrolled", func(t *testing.T) {
		router, useCase := setupCourseHandler(t)
		useCase.On("IsEnrolled", mock.Anything, "C1", "U7").Return(false, nil).Once()

		w := doRequest(router, http.MethodGet, "/v1/courses/C1/enrollments/U7")

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"course_id":"C1","user_id":"U7","enrolled":false}`, w.Body.String())
	})

	t.Run("CourseNotFound", func(t *testing.T) {
		router, useCase := setupCourseHandler(t)
		useCase.On("IsEnrolled", mock.Anything, "C9", "U1").Return(false, enrollmentDomain.ErrCourseNotFound).Once()

		w := doRequest(router, http.MethodGet, "/v1/courses/C9/enrollments/U1")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
