// Package repository provides the Redis list backed overflow queues.
package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/allisson/enrollments/internal/errors"
	notificationDomain "github.com/allisson/enrollments/internal/notification/domain"
)

// RedisOverflowRepository is a FIFO per queue name: LPUSH appends, RPOP takes the oldest.
type RedisOverflowRepository struct {
	client redis.Cmdable
}

// NewRedisOverflowRepository creates a new RedisOverflowRepository.
func NewRedisOverflowRepository(client redis.Cmdable) *RedisOverflowRepository {
	return &RedisOverflowRepository{client: client}
}

// Push appends task to queue.
func (r *RedisOverflowRepository) Push(ctx context.Context, queue string, task *notificationDomain.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode overflow task")
	}
	if err := r.client.LPush(ctx, queue, data).Err(); err != nil {
		return apperrors.Wrapf(err, "failed to push to %s", queue)
	}
	return nil
}

// Pop removes and returns the oldest task of queue, or notificationDomain.ErrQueueEmpty.
func (r *RedisOverflowRepository) Pop(ctx context.Context, queue string) (*notificationDomain.Task, error) {
	data, err := r.client.RPop(ctx, queue).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notificationDomain.ErrQueueEmpty
		}
		return nil, apperrors.Wrapf(err, "failed to pop from %s", queue)
	}

	var task notificationDomain.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, apperrors.Wrapf(notificationDomain.ErrMalformedMessage, "%s entry %q: %v", queue, data, err)
	}
	return &task, nil
}

// Len returns the number of entries in queue.
func (r *RedisOverflowRepository) Len(ctx context.Context, queue string) (int64, error) {
	n, err := r.client.LLen(ctx, queue).Result()
	if err != nil {
		return 0, apperrors.Wrapf(err, "failed to get length of %s", queue)
	}
	return n, nil
}
