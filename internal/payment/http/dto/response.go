// Package dto provides the webhook response bodies.
package dto

import (
	paymentDomain "github.com/allisson/enrollments/internal/payment/domain"
)

// WebhookResponse is returned to the gateway for every delivery.
type WebhookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// MapOutcomeToResponse describes a processed delivery.
func MapOutcomeToResponse(outcome paymentDomain.Outcome) WebhookResponse {
	switch outcome {
	case paymentDomain.OutcomeDuplicate:
		return WebhookResponse{Success: true, Message: "Duplicate webhook ignored."}
	case paymentDomain.OutcomePaymentFailed:
		return WebhookResponse{Success: false, Message: "Payment failed."}
	case paymentDomain.OutcomeEnrolled:
		return WebhookResponse{Success: true, Message: "User enrolled successfully."}
	default:
		return WebhookResponse{Success: false, Message: "Unhandled event type."}
	}
}
