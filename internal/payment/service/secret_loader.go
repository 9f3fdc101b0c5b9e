package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	paymentDomain "github.com/allisson/enrollments/internal/payment/domain"
	customValidation "github.com/allisson/enrollments/internal/validation"
)

// SecretSource describes where the webhook secret comes from.
type SecretSource struct {
	// Plaintext is used as-is when Ciphertext is empty.
	Plaintext string
	// Ciphertext is a base64 KMS ciphertext of the secret.
	Ciphertext string
	// KeyURI is the keeper URI able to decrypt Ciphertext.
	KeyURI string
}

// LoadWebhookSecret resolves the webhook secret, unwrapping it through KMS when a
// ciphertext is configured.
func LoadWebhookSecret(ctx context.Context, kms KMSService, source SecretSource) ([]byte, error) {
	if source.Ciphertext == "" {
		if source.Plaintext == "" {
			return nil, paymentDomain.ErrSecretNotConfigured
		}
		return []byte(source.Plaintext), nil
	}

	if source.KeyURI == "" {
		return nil, errors.New("KMS_KEY_URI is required when WEBHOOK_SECRET_CIPHERTEXT is set")
	}
	if err := customValidation.Base64.Validate(source.Ciphertext); err != nil {
		return nil, fmt.Errorf("invalid webhook secret ciphertext: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(source.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decode webhook secret ciphertext: %w", err)
	}

	keeper, err := kms.OpenKeeper(ctx, source.KeyURI)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = keeper.Close()
	}()

	secret, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt webhook secret: %w", err)
	}
	return secret, nil
}

// EncryptWebhookSecret wraps plaintext with the keeper at keyURI and returns the
// base64 ciphertext suitable for WEBHOOK_SECRET_CIPHERTEXT.
func EncryptWebhookSecret(ctx context.Context, kms KMSService, keyURI, plaintext string) (string, error) {
	if plaintext == "" {
		return "", paymentDomain.ErrSecretNotConfigured
	}

	keeper, err := kms.OpenKeeper(ctx, keyURI)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = keeper.Close()
	}()

	ciphertext, err := keeper.Encrypt(ctx, []byte(plaintext))
	if err != nil {
		return "", fmt.Errorf("failed to encrypt webhook secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}
