// Package mocks provides mock implementations of the notification interfaces.
package mocks

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/mock"

	notificationDomain "github.com/allisson/enrollments/internal/notification/domain"
)

// MockPublisher is a mock implementation of service.Publisher.
type MockPublisher struct {
	mock.Mock
}

// Publish mocks the Publish method of Publisher.
func (m *MockPublisher) Publish(ctx context.Context, msg notificationDomain.EnrollmentMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockNotifier is a mock implementation of service.Notifier.
type MockNotifier struct {
	mock.Mock
}

// Notify mocks the Notify method of Notifier.
func (m *MockNotifier) Notify(ctx context.Context, msg notificationDomain.EnrollmentMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockDeliverySource is a mock implementation of service.DeliverySource.
type MockDeliverySource struct {
	mock.Mock
}

// Deliveries mocks the Deliveries method of DeliverySource.
func (m *MockDeliverySource) Deliveries(ctx context.Context) (<-chan amqp.Delivery, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan amqp.Delivery), args.Error(1)
}

// MockOverflowRepository is a mock implementation of OverflowRepository.
type MockOverflowRepository struct {
	mock.Mock
}

// Push mocks the Push method of OverflowRepository.
func (m *MockOverflowRepository) Push(ctx context.Context, queue string, task *notificationDomain.Task) error {
	args := m.Called(ctx, queue, task)
	return args.Error(0)
}

// Pop mocks the Pop method of OverflowRepository.
func (m *MockOverflowRepository) Pop(ctx context.Context, queue string) (*notificationDomain.Task, error) {
	args := m.Called(ctx, queue)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notificationDomain.Task), args.Error(1)
}

// Len mocks the Len method of OverflowRepository.
func (m *MockOverflowRepository) Len(ctx context.Context, queue string) (int64, error) {
	args := m.Called(ctx, queue)
	return args.Get(0).(int64), args.Error(1)
}

// MockDispatcher is a mock implementation of Dispatcher.
type MockDispatcher struct {
	mock.Mock
}

// Dispatch mocks the Dispatch method of Dispatcher.
func (m *MockDispatcher) Dispatch(ctx context.Context, email, courseID string) notificationDomain.DispatchStatus {
	args := m.Called(ctx, email, courseID)
	return args.Get(0).(notificationDomain.DispatchStatus)
}

// MockSweeper is a mock implementation of Sweeper.
type MockSweeper struct {
	mock.Mock
}

// Sweep mocks the Sweep method of Sweeper.
func (m *MockSweeper) Sweep(ctx context.Context) (notificationDomain.SweepResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(notificationDomain.SweepResult), args.Error(1)
}
