package domain

import (
	"github.com/allisson/enrollments/internal/errors"
)

// Payment webhook errors.
var (
	// ErrInvalidSignature indicates the body does not match the signature header.
	ErrInvalidSignature = errors.Wrap(errors.ErrUnauthorized, "invalid webhook signature")

	// ErrMalformedPayload indicates the body is not a decodable gateway event.
	ErrMalformedPayload = errors.Wrap(errors.ErrInvalidInput, "malformed webhook payload")

	// ErrSecretNotConfigured indicates no webhook secret is available.
	ErrSecretNotConfigured = errors.New("webhook secret not configured")
)
