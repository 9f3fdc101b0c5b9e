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

// PostgreSQLUserRepository handles user persistence for PostgreSQL.
// The enrolled-course set is the user_courses table keyed by (user_id, course_id).
type PostgreSQLUserRepository struct {
	db *sql.DB
}

// NewPostgreSQLUserRepository creates a new PostgreSQLUserRepository.
func NewPostgreSQLUserRepository(db *sql.DB) *PostgreSQLUserRepository {
	return &PostgreSQLUserRepository{db: db}
}

// GetByID retrieves a user and its enrolled-course set.
func (r *PostgreSQLUserRepository) GetByID(ctx context.Context, userID string) (*enrollmentDomain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, first_name, last_name, scheduled_for_deletion FROM users WHERE id = $1`

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
		`SELECT course_id FROM user_courses WHERE user_id = $1 ORDER BY enrolled_at, course_id`,
		userID,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list user courses")
	}
	user.Courses = courses

	return user, nil
}

// AddCourse inserts the course into the user's enrolled-course set, ignoring duplicates.
func (r *PostgreSQLUserRepository) AddCourse(ctx context.Context, userID, courseID string) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO user_courses (user_id, course_id, enrolled_at) VALUES ($1, $2, NOW()) ON CONFLICT (user_id, course_id) DO NOTHING`

	if _, err := querier.ExecContext(ctx, query, userID, courseID); err != nil {
		return apperrors.Wrap(err, "failed to add course to user")
	}
	return nil
}

// ScheduleDeletion sets the user's deletion date.
func (r *PostgreSQLUserRepository) ScheduleDeletion(ctx context.Context, userID string, at time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users SET scheduled_for_deletion = $1 WHERE id = $2`

	result, err := querier.ExecContext(ctx, query, at, userID)
	if err != nil {
		return apperrors.Wrap(err, "failed to schedule user deletion")
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

// ListScheduledForDeletion returns users whose deletion date is at or before the given time.
func (r *PostgreSQLUserRepository) ListScheduledForDeletion(
	ctx context.Context,
	before time.Time,
	limit int,
) ([]*enrollmentDomain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, first_name, last_name, scheduled_for_deletion FROM users WHERE scheduled_for_deletion IS NOT NULL AND scheduled_for_deletion <= $1 ORDER BY scheduled_for_deletion, id LIMIT $2`

	users, err := queryUsers(ctx, querier, query, before, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list users scheduled for deletion")
	}

	for _, user := range users {
		courses, err := queryIDs(
			ctx,
			querier,
			`SELECT course_id FROM user_courses WHERE user_id = $1 ORDER BY enrolled_at, course_id`,
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
func (r *PostgreSQLUserRepository) Delete(ctx context.Context, userID string) error {
	querier := database.GetTx(ctx, r.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM user_courses WHERE user_id = $1`, userID); err != nil {
		return apperrors.Wrap(err, "failed to delete user courses")
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*enrollmentDomain.User, error) {
	var user enrollmentDomain.User
	var scheduledFor sql.NullTime

	if err := row.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &scheduledFor); err != nil {
		return nil, err
	}
	if scheduledFor.Valid {
		at := scheduledFor.Time.UTC()
		user.ScheduledForDeletion = &at
	}
	user.Courses = []string{}

	return &user, nil
}

func queryUsers(
	ctx context.Context,
	querier database.Querier,
	query string,
	args ...any,
) ([]*enrollmentDomain.User, error) {
	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	users := []*enrollmentDomain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
