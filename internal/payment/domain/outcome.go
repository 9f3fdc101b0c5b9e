package domain

// Outcome is the caller-visible result of a webhook delivery.
type Outcome string

const (
	// OutcomeDuplicate means the event was already processed and nothing ran.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomePaymentFailed means a failed payment was recorded for reconciliation.
	OutcomePaymentFailed Outcome = "payment_failed"
	// OutcomeEnrolled means the enrollment committed and the notification was handed off.
	OutcomeEnrolled Outcome = "enrolled"
	// OutcomeUnhandled means the event type is not acted upon. No state was mutated.
	OutcomeUnhandled Outcome = "unhandled"
)
