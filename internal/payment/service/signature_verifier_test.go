package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	paymentDomain "github.com/allisson/enrollments/internal/payment/domain"
)

func TestSignatureVerifier_Sign(t *testing.T) {
	verifier := NewSignatureVerifier([]byte("key"))

	signature := verifier.Sign([]byte("The quick brown fox jumps over the lazy dog"))

	assert.Equal(t, "f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8", signature)
}

func TestSignatureVerifier_Verify(t *testing.T) {
	verifier := NewSignatureVerifier([]byte("webhook-secret"))
	body := []byte(`{"event":"payment.authorized","payload":{"payment":{"entity":{"id":"evt_1"}}}}`)
	signature := verifier.Sign(body)

	tests := []struct {
		name      string
		body      []byte
		signature string
		expected  error
	}{
		{name: "valid", body: body, signature: signature},
		{name: "valid uppercase hex", body: body, signature: strings.ToUpper(signature)},
		{
			name:      "altered body",
			body:      []byte(strings.Replace(string(body), "evt_1", "evt_2", 1)),
			signature: signature,
			expected:  paymentDomain.ErrInvalidSignature,
		},
		{
			name:      "whitespace changes the digest",
			body:      append([]byte(" "), body...),
			signature: signature,
			expected:  paymentDomain.ErrInvalidSignature,
		},
		{name: "missing header", body: body, signature: "", expected: paymentDomain.ErrInvalidSignature},
		{name: "not hex", body: body, signature: "zz", expected: paymentDomain.ErrInvalidSignature},
		{
			name:      "truncated digest",
			body:      body,
			signature: signature[:32],
			expected:  paymentDomain.ErrInvalidSignature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifier.Verify(tt.body, tt.signature)
			if tt.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expected)
			}
		})
	}
}

func TestSignatureVerifier_Verify_NoSecret(t *testing.T) {
	verifier := NewSignatureVerifier(nil)

	err := verifier.Verify([]byte("{}"), strings.Repeat("0", 64))

	assert.ErrorIs(t, err, paymentDomain.ErrSecretNotConfigured)
}
