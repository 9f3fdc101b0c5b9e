package dto

import (
	"time"

	enrollmentDomain "github.com/allisson/enrollments/internal/enrollment/domain"
)

// CourseResponse represents a course in API responses.
type CourseResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         int64     `json:"price"`
	StudentsCount int       `json:"students_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// MapCourseToResponse converts a domain course to an API response.
func MapCourseToResponse(course *enrollmentDomain.Course) CourseResponse {
	return CourseResponse{
		ID:            course.ID,
		Name:          course.Name,
		Description:   course.Description,
		Price:         course.Price,
		StudentsCount: len(course.EnrolledUsers),
		UpdatedAt:     course.UpdatedAt,
	}
}

// ListStudentsResponse represents a page of enrolled user identifiers.
type ListStudentsResponse struct {
	Data   []string `json:"data"`
	Total  int      `json:"total"`
	Offset int      `json:"offset"`
	Limit  int      `json:"limit"`
}

// MapCourseToStudentsResponse slices the enrolled users of a course by offset and limit.
func MapCourseToStudentsResponse(course *enrollmentDomain.Course, offset, limit int) ListStudentsResponse {
	total := len(course.EnrolledUsers)
	start := min(offset, total)
	end := min(start+limit, total)

	data := make([]string, 0, end-start)
	data = append(data, course.EnrolledUsers[start:end]...)

	return ListStudentsResponse{
		Data:   data,
		Total:  total,
		Offset: offset,
		Limit:  limit,
	}
}

// EnrollmentStatusResponse reports whether a user is enrolled in a course.
type EnrollmentStatusResponse struct {
	CourseID string `json:"course_id"`
	UserID   string `json:"user_id"`
	Enrolled bool   `json:"enrolled"`
}

// ScheduleDeletionResponse reports when a scheduled account will be removed.
type ScheduleDeletionResponse struct {
	UserID       string    `json:"user_id"`
	ScheduledFor time.Time `json:"scheduled_for"`
}
