// Package domain defines the payment webhook events handled by the enrollment pipeline.
package domain

import (
	"time"
)

// EventType is the gateway event name carried in the webhook body.
type EventType string

const (
	EventPaymentAuthorized EventType = "payment.authorized"
	EventPaymentFailed     EventType = "payment.failed"
)

// Event is a verified gateway notification. ID is the payment identifier and
// doubles as the idempotency key.
type Event struct {
	ID       string
	Type     EventType
	CourseID string
	UserID   string
}

// FailedPayment is pushed on the failed-payments overflow list for reconciliation.
type FailedPayment struct {
	PaymentID string    `json:"paymentId"`
	UserID    string    `json:"userId"`
	CourseID  string    `json:"courseId"`
	FailedAt  time.Time `json:"failedAt"`
}

// WebhookPayload mirrors the subset of the gateway body the pipeline reads.
type WebhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID    string `json:"id"`
				Notes struct {
					CourseID string `json:"courseId"`
					UserID   string `json:"userId"`
				} `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// ToEvent flattens the payload into an Event.
func (p *WebhookPayload) ToEvent() *Event {
	entity := p.Payload.Payment.Entity
	return &Event{
		ID:       entity.ID,
		Type:     EventType(p.Event),
		CourseID: entity.Notes.CourseID,
		UserID:   entity.Notes.UserID,
	}
}
