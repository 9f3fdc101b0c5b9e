package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	enrollmentDomain "github.com/allisson/enrollments/internal/enrollment/domain"
	apperrors "github.com/allisson/enrollments/internal/errors"
)

// CourseKey returns the cache key of a course snapshot.
func CourseKey(courseID string) string {
	return "course:" + courseID
}

// UserKey returns the cache key of a profile snapshot.
func UserKey(userID string) string {
	return "user:" + userID
}

// RedisCourseCache stores JSON course snapshots with a TTL.
type RedisCourseCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisCourseCache creates a new RedisCourseCache.
func NewRedisCourseCache(client redis.Cmdable, ttl time.Duration) *RedisCourseCache {
	return &RedisCourseCache{client: client, ttl: ttl}
}

// GetCourse returns the cached snapshot or enrollmentDomain.ErrCacheMiss.
func (c *RedisCourseCache) GetCourse(ctx context.Context, courseID string) (*enrollmentDomain.Course, error) {
	data, err := c.client.Get(ctx, CourseKey(courseID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, enrollmentDomain.ErrCacheMiss
		}
		return nil, apperrors.Wrap(err, "failed to get cached course")
	}

	var course enrollmentDomain.Course
	if err := json.Unmarshal(data, &course); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode cached course")
	}
	return &course, nil
}

// SetCourse stores the snapshot with the configured TTL.
func (c *RedisCourseCache) SetCourse(ctx context.Context, course *enrollmentDomain.Course) error {
	data, err := json.Marshal(course)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode course")
	}

	if err := c.client.Set(ctx, CourseKey(course.ID), data, c.ttl).Err(); err != nil {
		return apperrors.Wrap(err, "failed to cache course")
	}
	return nil
}

// InvalidateCourse deletes the course snapshot.
func (c *RedisCourseCache) InvalidateCourse(ctx context.Context, courseID string) error {
	if err := c.client.Del(ctx, CourseKey(courseID)).Err(); err != nil {
		return apperrors.Wrap(err, "failed to invalidate cached course")
	}
	return nil
}

// InvalidateUser deletes the profile snapshot.
func (c *RedisCourseCache) InvalidateUser(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, UserKey(userID)).Err(); err != nil {
		return apperrors.Wrap(err, "failed to invalidate cached user")
	}
	return nil
}
