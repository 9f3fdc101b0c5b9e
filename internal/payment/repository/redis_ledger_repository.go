// Package repository provides the Redis-backed idempotency ledger and failed payment log.
package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/allisson/enrollments/internal/errors"
	paymentDomain "github.com/allisson/enrollments/internal/payment/domain"
)

const (
	// ProcessedPaymentsKey is the set of payment ids whose enrollment committed.
	ProcessedPaymentsKey = "processed-payments"

	// FailedPaymentsKey is the list of failed payment notifications awaiting reconciliation.
	FailedPaymentsKey = "failed-payments"
)

// RedisLedgerRepository records processed payment ids in a Redis set.
type RedisLedgerRepository struct {
	client redis.Cmdable
}

// NewRedisLedgerRepository creates a new RedisLedgerRepository.
func NewRedisLedgerRepository(client redis.Cmdable) *RedisLedgerRepository {
	return &RedisLedgerRepository{client: client}
}

// IsProcessed reports whether eventID was marked. A false result does not prove the
// event was never processed since marks expire.
func (r *RedisLedgerRepository) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	ok, err := r.client.SIsMember(ctx, ProcessedPaymentsKey, eventID).Result()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check processed payment")
	}
	return ok, nil
}

// MarkProcessed adds eventID to the set and refreshes the retention window.
func (r *RedisLedgerRepository) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, ProcessedPaymentsKey, eventID)
		pipe.Expire(ctx, ProcessedPaymentsKey, ttl)
		return nil
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to mark processed payment")
	}
	return nil
}

// RedisFailedPaymentRepository appends failed payments to the failed-payments list.
type RedisFailedPaymentRepository struct {
	client redis.Cmdable
}

// NewRedisFailedPaymentRepository creates a new RedisFailedPaymentRepository.
func NewRedisFailedPaymentRepository(client redis.Cmdable) *RedisFailedPaymentRepository {
	return &RedisFailedPaymentRepository{client: client}
}

// Record pushes the failed payment as JSON.
func (r *RedisFailedPaymentRepository) Record(ctx context.Context, payment *paymentDomain.FailedPayment) error {
	data, err := json.Marshal(payment)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode failed payment")
	}
	if err := r.client.LPush(ctx, FailedPaymentsKey, data).Err(); err != nil {
		return apperrors.Wrap(err, "failed to record failed payment")
	}
	return nil
}
