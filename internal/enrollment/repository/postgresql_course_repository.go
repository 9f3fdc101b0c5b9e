// Package repository provides the PostgreSQL, MySQL and MongoDB stores for courses and
// users, plus the Redis snapshot cache.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/enrollments/internal/database"
	enrollmentDomain "github.com/allisson/enrollments/internal/enrollment/domain"
	apperrors "github.com/allisson/enrollments/internal/errors"
)

// PostgreSQLCourseRepository handles course persistence for PostgreSQL.
// The enrolled set is the course_students table keyed by (course_id, user_id).
type PostgreSQLCourseRepository struct {
	db *sql.DB
}

// NewPostgreSQLCourseRepository creates a new PostgreSQLCourseRepository.
func NewPostgreSQLCourseRepository(db *sql.DB) *PostgreSQLCourseRepository {
	return &PostgreSQLCourseRepository{db: db}
}

// GetByID retrieves a course and its enrolled set.
func (r *PostgreSQLCourseRepository) GetByID(ctx context.Context, courseID string) (*enrollmentDomain.Course, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, description, price, updated_at FROM courses WHERE id = $1`

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
		`SELECT user_id FROM course_students WHERE course_id = $1 ORDER BY enrolled_at, user_id`,
		courseID,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list course students")
	}
	course.EnrolledUsers = students

	return &course, nil
}

// IsEnrolled checks the course_students relation.
func (r *PostgreSQLCourseRepository) IsEnrolled(ctx context.Context, courseID, userID string) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT EXISTS(SELECT 1 FROM course_students WHERE course_id = $1 AND user_id = $2)`

	var exists bool
	if err := querier.QueryRowContext(ctx, query, courseID, userID).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check enrollment")
	}
	return exists, nil
}

// AddStudent inserts the user into the course's enrolled set, ignoring duplicates.
func (r *PostgreSQLCourseRepository) AddStudent(ctx context.Context, courseID, userID string) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO course_students (course_id, user_id, enrolled_at) VALUES ($1, $2, NOW()) ON CONFLICT (course_id, user_id) DO NOTHING`

	if _, err := querier.ExecContext(ctx, query, courseID, userID); err != nil {
		return apperrors.Wrap(err, "failed to add student to course")
	}
	return nil
}

// RemoveStudent removes the user from every course's enrolled set.
func (r *PostgreSQLCourseRepository) RemoveStudent(ctx context.Context, userID string) error {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM course_students WHERE user_id = $1`

	if _, err := querier.ExecContext(ctx, query, userID); err != nil {
		return apperrors.Wrap(err, "failed to remove student from courses")
	}
	return nil
}

// queryIDs runs a single-column query and collects the values.
func queryIDs(ctx context.Context, querier database.Querier, query string, args ...any) ([]string, error) {
	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
