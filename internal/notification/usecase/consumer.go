package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	validation "github.com/jellydator/validation"
	amqp "github.com/rabbitmq/amqp091-go"

	notificationDomain "github.com/allisson/enrollments/internal/notification/domain"
	notificationService "github.com/allisson/enrollments/internal/notification/service"
	customValidation "github.com/allisson/enrollments/internal/validation"
)

const (
	reconnectInitialInterval = time.Second
	reconnectMaxInterval     = 30 * time.Second
	reconnectMaxElapsedTime  = 5 * time.Minute
)

// Consumer turns bus deliveries into notifications.
type Consumer struct {
	source    notificationService.DeliverySource
	notifier  notificationService.Notifier
	logger    *slog.Logger
	reconnect func() backoff.BackOff
}

// NewConsumer creates a new Consumer.
func NewConsumer(
	source notificationService.DeliverySource,
	notifier notificationService.Notifier,
	logger *slog.Logger,
) *Consumer {
	return &Consumer{
		source:    source,
		notifier:  notifier,
		logger:    logger,
		reconnect: defaultReconnectBackOff,
	}
}

func defaultReconnectBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = reconnectInitialInterval
	b.MaxInterval = reconnectMaxInterval
	b.MaxElapsedTime = reconnectMaxElapsedTime
	return b
}

// Run consumes until ctx is done. Malformed messages are rejected to the dead letter
// queue; notifier failures are requeued. When the delivery channel closes the consumer
// subscribes again with exponential backoff, and gives up once the bus has been
// unreachable for longer than the reconnect budget.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msgs, err := c.subscribe(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("notification consumer stopped")
				return nil
			}
			return fmt.Errorf("start consuming: %w", err)
		}

		c.logger.Info("notification consumer started")
		if !c.consume(ctx, msgs) {
			c.logger.Info("notification consumer stopped")
			return nil
		}
		c.logger.Warn("delivery channel closed, resubscribing")
	}
}

func (c *Consumer) subscribe(ctx context.Context) (<-chan amqp.Delivery, error) {
	var msgs <-chan amqp.Delivery
	operation := func() error {
		var err error
		msgs, err = c.source.Deliveries(ctx)
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("cannot consume notifications, retrying",
			slog.Any("error", err),
			slog.Duration("retry_in", wait),
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(c.reconnect(), ctx), notify); err != nil {
		return nil, err
	}
	return msgs, nil
}

// consume handles deliveries until ctx is done (false) or msgs closes (true).
func (c *Consumer) consume(ctx context.Context, msgs <-chan amqp.Delivery) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case d, ok := <-msgs:
			if !ok {
				return true
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	msg, err := decodeMessage(d.Body)
	if err != nil {
		c.logger.Error("rejecting notification message",
			slog.String("message_id", d.MessageId),
			slog.Any("error", err),
		)
		_ = d.Nack(false, false)
		return
	}

	if err := c.notifier.Notify(ctx, msg); err != nil {
		c.logger.Warn("notification failed, requeueing",
			slog.String("message_id", d.MessageId),
			slog.String("course_id", msg.CourseID),
			slog.Any("error", err),
		)
		_ = d.Nack(false, true)
		return
	}

	_ = d.Ack(false)
}

func decodeMessage(body []byte) (notificationDomain.EnrollmentMessage, error) {
	var msg notificationDomain.EnrollmentMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("%w: %w", notificationDomain.ErrMalformedMessage, err)
	}

	err := validation.ValidateStruct(&msg,
		validation.Field(&msg.Email, validation.Required, customValidation.Email),
		validation.Field(&msg.CourseID, validation.Required, customValidation.ResourceID),
	)
	if err != nil {
		return msg, fmt.Errorf("%w: %w", notificationDomain.ErrMalformedMessage, err)
	}
	return msg, nil
}
