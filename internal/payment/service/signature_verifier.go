package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	paymentDomain "github.com/allisson/enrollments/internal/payment/domain"
)

type hmacSignatureVerifier struct {
	secret []byte
}

// NewSignatureVerifier creates an HMAC-SHA256 verifier keyed with the gateway webhook secret.
func NewSignatureVerifier(secret []byte) SignatureVerifier {
	return &hmacSignatureVerifier{secret: secret}
}

// Sign computes the hex digest the gateway sends in the signature header.
func (v *hmacSignatureVerifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares the expected MAC with the header value in constant time.
// The digest is computed over the bytes as received, never a re-encoding.
func (v *hmacSignatureVerifier) Verify(body []byte, signature string) error {
	if len(v.secret) == 0 {
		return paymentDomain.ErrSecretNotConfigured
	}

	provided, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(provided) != sha256.Size {
		return paymentDomain.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), provided) {
		return paymentDomain.ErrInvalidSignature
	}

	return nil
}
