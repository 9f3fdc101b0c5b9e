package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/enrollments/internal/database"
	enrollmentDomain "github.com/allisson/enrollments/internal/enrollment/domain"
	apperrors "github.com/allisson/enrollments/internal/errors"
)

// MySQLCourseRepository handles course persistence for MySQL.
type MySQLCourseRepository struct {
	db *sql.DB
}

// NewMySQLCourseRepository creates a new MySQLCourseRepository.
func NewMySQLCourseRepository(db *sql.DB) *MySQLCourseRepository {
	return &MySQLCourseRepository{db: db}
}

// GetByID retrieves a course and its enrolled set.
func (r *MySQLCourseRepository) GetByID(ctx context.Context, courseID string) (*enrollmentDomain.Course, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, description, price, updated_at FROM courses WHERE id = ?`

	var course enrollmentDomain.Course
	err := querier.QueryRowContext(ctx, query, courseID).Scan(
		&course.ID, &course.Name, &course.Description, &course.Price, &course.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, enrollmentDomain.ErrCourseNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get course by id")
	}

	students, err := queryIDs(
		ctx,
		querier,
		`SELECT user_id FROM course_students WHERE course_id = ? ORDER BY enrolled_at, user_id`,
		courseID,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list course students")
	}
	course.EnrolledUsers = students

	return &course, nil
}

// IsEnrolled checks the course_students relation.
func (r *MySQLCourseRepository) IsEnrolled(ctx context.Context, courseID, userID string) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT EXISTS(SELECT 1 FROM course_students WHERE course_id = ? AND user_id = ?)`

	var exists bool
	if err := querier.QueryRowContext(ctx, query, courseID, userID).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check enrollment")
	}
	return exists, nil
}

// AddStudent inserts the user into the course's enrolled set, ignoring duplicates.
func (r *MySQLCourseRepository) AddStudent(ctx context.Context, courseID, userID string) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT IGNORE INTO course_students (course_id, user_id, enrolled_at) VALUES (?, ?, NOW())`

	if _, err := querier.ExecContext(ctx, query, courseID, userID); err != nil {
		return apperrors.Wrap(err, "failed to add student to course")
	}
	return nil
}

// RemoveStudent removes the user from every course's enrolled set.
func (r *MySQLCourseRepository) RemoveStudent(ctx context.Context, userID string) error {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM course_students WHERE user_id = ?`

	if _, err := querier.ExecContext(ctx, query, userID); err != nil {
		return apperrors.Wrap(err, "failed to remove student from courses")
	}
	return nil
}
