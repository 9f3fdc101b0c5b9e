package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	paymentService "github.com/allisson/enrollments/internal/payment/service"
)

// RunEncryptWebhookSecret wraps the webhook secret with the KMS key at keyURI and
// prints the value for WEBHOOK_SECRET_CIPHERTEXT. When secret is empty it is read
// from the first line of the input stream.
func RunEncryptWebhookSecret(
	ctx context.Context,
	kmsService paymentService.KMSService,
	logger *slog.Logger,
	streams IOTuple,
	keyURI string,
	secret string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	if keyURI == "" {
		return errors.New("key URI is required (--kms-key-uri or KMS_KEY_URI)")
	}

	if secret == "" {
		line, err := readLine(streams.Reader)
		if err != nil {
			return err
		}
		secret = line
	}

	ciphertext, err := paymentService.EncryptWebhookSecret(ctx, kmsService, keyURI, secret)
	if err != nil {
		return fmt.Errorf("failed to encrypt webhook secret: %w", err)
	}

	if format == "json" {
		if err := writeJSON(streams.Writer, map[string]string{
			"kms_key_uri":               keyURI,
			"webhook_secret_ciphertext": ciphertext,
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(streams.Writer, "WEBHOOK_SECRET_CIPHERTEXT=%s\n", ciphertext)
	}

	logger.Info("webhook secret encrypted")
	return nil
}
