// Package mocks provides mock implementations of the payment use case interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	notificationDomain "github.com/allisson/enrollments/internal/notification/domain"
	paymentDomain "github.com/allisson/enrollments/internal/payment/domain"
)

// MockLedgerRepository is a mock implementation of LedgerRepository.
type MockLedgerRepository struct {
	mock.Mock
}

// IsProcessed mocks the IsProcessed method of LedgerRepository.
func (m *MockLedgerRepository) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

// MarkProcessed mocks the MarkProcessed method of LedgerRepository.
func (m *MockLedgerRepository) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) error {
	args := m.Called(ctx, eventID, ttl)
	return args.Error(0)
}

// MockFailedPaymentRepository is a mock implementation of FailedPaymentRepository.
type MockFailedPaymentRepository struct {
	mock.Mock
}

// Record mocks the Record method of FailedPaymentRepository.
func (m *MockFailedPaymentRepository) Record(ctx context.Context, payment *paymentDomain.FailedPayment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

// MockNotificationDispatcher is a mock implementation of NotificationDispatcher.
type MockNotificationDispatcher struct {
	mock.Mock
}

// Dispatch mocks the Dispatch method of NotificationDispatcher.
func (m *MockNotificationDispatcher) Dispatch(
	ctx context.Context,
	email, courseID string,
) notificationDomain.DispatchStatus {
	args := m.Called(ctx, email, courseID)
	return args.Get(0).(notificationDomain.DispatchStatus)
}

// MockSignatureVerifier is a mock implementation of service.SignatureVerifier.
type MockSignatureVerifier struct {
	mock.Mock
}

// Sign mocks the Sign method of SignatureVerifier.
func (m *MockSignatureVerifier) Sign(body []byte) string {
	args := m.Called(body)
	return args.String(0)
}

// Verify mocks the Verify method of SignatureVerifier.
func (m *MockSignatureVerifier) Verify(body []byte, signature string) error {
	args := m.Called(body, signature)
	return args.Error(0)
}

// MockWebhookUseCase is a mock implementation of WebhookUseCase.
type MockWebhookUseCase struct {
	mock.Mock
}

// Handle mocks the Handle method of WebhookUseCase.
func (m *MockWebhookUseCase) Handle(ctx context.Context, body []byte, signature string) (paymentDomain.Outcome, error) {
	args := m.Called(ctx, body, signature)
	return args.Get(0).(paymentDomain.Outcome), args.Error(1)
}
