// Package http provides HTTP handlers for course lookups, enrollment checks and
// account deletion requests.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/enrollments/internal/enrollment/http/dto"
	enrollmentUseCase "github.com/allisson/enrollments/internal/enrollment/usecase"
	"github.com/allisson/enrollments/internal/httputil"
	customValidation "github.com/allisson/enrollments/internal/validation"
)

// CourseHandler handles HTTP requests for course reads.
type CourseHandler struct {
	enrollmentUseCase enrollmentUseCase.EnrollmentUseCase
	logger            *slog.Logger
}

// NewCourseHandler creates a new course handler.
func NewCourseHandler(
	enrollmentUseCase enrollmentUseCase.EnrollmentUseCase,
	logger *slog.Logger,
) *CourseHandler {
	return &CourseHandler{
		enrollmentUseCase: enrollmentUseCase,
		logger:            logger,
	}
}

// GetHandler returns a course through the read-through cache.
// GET /v1/courses/:id
func (h *CourseHandler) GetHandler(c *gin.Context) {
	params := dto.CoursePathParams{CourseID: c.Param("id")}
	if err := params.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	course, err := h.enrollmentUseCase.GetCourse(c.Request.Context(), params.CourseID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCourseToResponse(course))
}

// ListStudentsHandler returns a page of the users enrolled in a course.
// GET /v1/courses/:id/students?offset=0&limit=50
func (h *CourseHandler) ListStudentsHandler(c *gin.Context) {
	params := dto.CoursePathParams{CourseID: c.Param("id")}
	if err := params.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	course, err := h.enrollmentUseCase.GetCourse(c.Request.Context(), params.CourseID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCourseToStudentsResponse(course, offset, limit))
}

// GetEnrollmentHandler reports whether a user is enrolled in a course.
// GET /v1/courses/:id/enrollments/:userId
func (h *CourseHandler) GetEnrollmentHandler(c *gin.Context) {
	params := dto.CoursePathParams{CourseID: c.Param("id"), UserID: c.Param("userId")}
	if err := params.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	enrolled, err := h.enrollmentUseCase.IsEnrolled(c.Request.Context(), params.CourseID, params.UserID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.EnrollmentStatusResponse{
		CourseID: params.CourseID,
		UserID:   params.UserID,
		Enrolled: enrolled,
	})
}
