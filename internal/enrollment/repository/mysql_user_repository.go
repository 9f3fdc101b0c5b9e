package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/allisson/enrollments/internal/database"
	enrollmentDomain "github.com/allisson/enrollments/internal/enrollment/domain"
	apperrors "github.com/allisson/enrollments/internal/errors"
)

// MySQLUserRepository handles user persistence for MySQL.
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQLUserRepository.
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

// GetByID retrieves a user and its enrolled-course set.
func (r *MySQLUserRepository) GetByID(ctx context.Context, userID string) (*enrollmentDomain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, first_name, last_name, scheduled_for_deletion FROM users WHERE id = ?`

	user, err := scanUser(querier.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, enrollmentDomain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user by id")
	}

	courses, err := queryIDs(
		ctx,
		querier,
		`SELECT course_id FROM user_courses WHERE user_id = ? ORDER BY enrolled_at, course_id`,
		userID,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list user courses")
	}
	user.Courses = courses

	return user, nil
}

// AddCourse inserts the course into the user's enrolled-course set, ignoring duplicates.
func (r *MySQLUserRepository) AddCourse(ctx context.Context, userID, courseID string) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT IGNORE INTO user_courses (user_id, course_id, enrolled_at) VALUES (?, ?, NOW())`

	if _, err := querier.ExecContext(ctx, query, userID, courseID); err != nil {
		return apperrors.Wrap(err, "failed to add course to user")
	}
	return nil
}

// ScheduleDeletion sets the user's deletion date. MySQL reports zero affected rows
// when the value is unchanged, so existence is checked separately.
func (r *MySQLUserRepository) ScheduleDeletion(ctx context.Context, userID string, at time.Time) error {
	querier := database.GetTx(ctx, r.db)

	var exists bool
	err := querier.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, userID).Scan(&exists)
	if err != nil {
		return apperrors.Wrap(err, "failed to check user")
	}
	if !exists {
		return enrollmentDomain.ErrUserNotFound
	}

	query := `UPDATE users SET scheduled_for_deletion = ? WHERE id = ?`

	if _, err := querier.ExecContext(ctx, query, at, userID); err != nil {
		return apperrors.Wrap(err, "failed to schedule user deletion")
	}
	return nil
}

// ListScheduledForDeletion returns users whose deletion date is at or before the given time.
func (r *MySQLUserRepository) ListScheduledForDeletion(
	ctx context.Context,
	before time.Time,
	limit int,
) ([]*enrollmentDomain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, first_name, last_name, scheduled_for_deletion FROM users WHERE scheduled_for_deletion IS NOT NULL AND scheduled_for_deletion <= ? ORDER BY scheduled_for_deletion, id LIMIT ?`

	users, err := queryUsers(ctx, querier, query, before, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list users scheduled for deletion")
	}

	for _, user := range users {
		courses, err := queryIDs(
			ctx,
			querier,
			`SELECT course_id FROM user_courses WHERE user_id = ? ORDER BY enrolled_at, course_id`,
			user.ID,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to list user courses")
		}
		user.Courses = courses
	}

	return users, nil
}

// Delete removes the user and its enrolled-course set.
func (r *MySQLUserRepository) Delete(ctx context.Context, userID string) error {
	querier := database.GetTx(ctx, r.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM user_courses WHERE user_id = ?`, userID); err != nil {
		return apperrors.Wrap(err, "failed to delete user courses")
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete user")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return enrollmentDomain.ErrUserNotFound
	}
	return nil
}
