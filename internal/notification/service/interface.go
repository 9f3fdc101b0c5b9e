// Package service provides the RabbitMQ notification bus and the notifier that
// delivers consumed notifications.
package service

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"

	notificationDomain "github.com/allisson/enrollments/internal/notification/domain"
)

// Publisher publishes enrollment notifications on the bus.
type Publisher interface {
	Publish(ctx context.Context, msg notificationDomain.EnrollmentMessage) error
}

// DeliverySource yields bus deliveries until ctx is done.
type DeliverySource interface {
	Deliveries(ctx context.Context) (<-chan amqp.Delivery, error)
}

// Notifier sends the notification announced by a bus message.
type Notifier interface {
	Notify(ctx context.Context, msg notificationDomain.EnrollmentMessage) error
}
