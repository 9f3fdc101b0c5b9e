// Package service provides webhook signature verification and webhook secret loading.
package service

import (
	"context"
)

// SignatureVerifier authenticates raw webhook bodies.
type SignatureVerifier interface {
	// Sign returns the hex encoded HMAC-SHA256 of body.
	Sign(body []byte) string

	// Verify returns domain.ErrInvalidSignature unless signature is the HMAC of body.
	Verify(body []byte, signature string) error
}

// KMSKeeper is the subset of *secrets.Keeper used to wrap the webhook secret.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// KMSService opens keepers for a gocloud.dev/secrets key URI.
type KMSService interface {
	// OpenKeeper opens a keeper for keyURI (base64key://, hashivault://, awskms://,
	// gcpkms:// or azurekeyvault://).
	OpenKeeper(ctx context.Context, keyURI string) (KMSKeeper, error)
}
