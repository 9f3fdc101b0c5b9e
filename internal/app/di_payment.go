package app

import (
	"context"
	"fmt"

	notificationUseCase "github.com/allisson/enrollments/internal/notification/usecase"
	paymentHTTP "github.com/allisson/enrollments/internal/payment/http"
	paymentRepository "github.com/allisson/enrollments/internal/payment/repository"
	paymentService "github.com/allisson/enrollments/internal/payment/service"
	paymentUseCase "github.com/allisson/enrollments/internal/payment/usecase"
)

// KMSService returns the KMS service used to unwrap the webhook secret.
func (c *Container) KMSService() paymentService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = paymentService.NewKMSService()
	})
	return c.kmsService
}

// SignatureVerifier returns the HMAC verifier keyed with the webhook secret.
func (c *Container) SignatureVerifier() (paymentService.SignatureVerifier, error) {
	var err error
	c.signatureVerifierInit.Do(func() {
		c.signatureVerifier, err = c.initSignatureVerifier()
		if err != nil {
			c.recordError("signatureVerifier", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("signatureVerifier"); storedErr != nil {
		return nil, storedErr
	}
	return c.signatureVerifier, nil
}

// LedgerRepository returns the processed payments ledger.
func (c *Container) LedgerRepository() (paymentUseCase.LedgerRepository, error) {
	var err error
	c.ledgerRepositoryInit.Do(func() {
		c.ledgerRepository, err = c.initLedgerRepository()
		if err != nil {
			c.recordError("ledgerRepository", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("ledgerRepository"); storedErr != nil {
		return nil, storedErr
	}
	return c.ledgerRepository, nil
}

// FailedPaymentRepository returns the failed payments queue.
func (c *Container) FailedPaymentRepository() (paymentUseCase.FailedPaymentRepository, error) {
	var err error
	c.failedPaymentRepositoryInit.Do(func() {
		c.failedPaymentRepository, err = c.initFailedPaymentRepository()
		if err != nil {
			c.recordError("failedPaymentRepository", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("failedPaymentRepository"); storedErr != nil {
		return nil, storedErr
	}
	return c.failedPaymentRepository, nil
}

// WebhookUseCase returns the webhook receiver wrapped with metrics.
func (c *Container) WebhookUseCase() (paymentUseCase.WebhookUseCase, error) {
	var err error
	c.webhookUseCaseInit.Do(func() {
		c.webhookUseCase, err = c.initWebhookUseCase()
		if err != nil {
			c.recordError("webhookUseCase", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("webhookUseCase"); storedErr != nil {
		return nil, storedErr
	}
	return c.webhookUseCase, nil
}

// WebhookHandler returns the HTTP handler of the payment webhook.
func (c *Container) WebhookHandler() (*paymentHTTP.WebhookHandler, error) {
	var err error
	c.webhookHandlerInit.Do(func() {
		c.webhookHandler, err = c.initWebhookHandler()
		if err != nil {
			c.recordError("webhookHandler", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("webhookHandler"); storedErr != nil {
		return nil, storedErr
	}
	return c.webhookHandler, nil
}

func (c *Container) initSignatureVerifier() (paymentService.SignatureVerifier, error) {
	ctx, cancel := context.WithTimeout(c.ctx, connectTimeout)
	defer cancel()

	secret, err := paymentService.LoadWebhookSecret(ctx, c.KMSService(), paymentService.SecretSource{
		Plaintext:  c.config.WebhookSecret,
		Ciphertext: c.config.WebhookSecretCiphertext,
		KeyURI:     c.config.KMSKeyURI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load webhook secret: %w", err)
	}
	return paymentService.NewSignatureVerifier(secret), nil
}

func (c *Container) initLedgerRepository() (paymentUseCase.LedgerRepository, error) {
	client, err := c.RedisClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get redis client for ledger repository: %w", err)
	}
	return paymentRepository.NewRedisLedgerRepository(client), nil
}

func (c *Container) initFailedPaymentRepository() (paymentUseCase.FailedPaymentRepository, error) {
	client, err := c.RedisClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get redis client for failed payment repository: %w", err)
	}
	return paymentRepository.NewRedisFailedPaymentRepository(client), nil
}

func (c *Container) initWebhookUseCase() (paymentUseCase.WebhookUseCase, error) {
	verifier, err := c.SignatureVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to get signature verifier for webhook use case: %w", err)
	}

	ledgerRepository, err := c.LedgerRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger repository for webhook use case: %w", err)
	}

	failedPaymentRepository, err := c.FailedPaymentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get failed payment repository for webhook use case: %w", err)
	}

	enrollmentUseCase, err := c.EnrollmentUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment use case for webhook use case: %w", err)
	}

	dispatcher, err := c.Dispatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to get dispatcher for webhook use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for webhook use case: %w", err)
	}

	useCase := paymentUseCase.NewWebhookUseCase(
		paymentUseCase.WebhookConfig{
			Timeout:         c.config.WebhookTimeout,
			IdempotencyTTL:  c.config.IdempotencyTTL,
			DispatchTimeout: c.dispatcherConfig().RetryBudget(notificationUseCase.PublishAllowance),
		},
		verifier,
		ledgerRepository,
		failedPaymentRepository,
		enrollmentUseCase,
		dispatcher,
		c.Logger(),
	)
	return paymentUseCase.NewWebhookUseCaseWithMetrics(useCase, businessMetrics), nil
}

func (c *Container) initWebhookHandler() (*paymentHTTP.WebhookHandler, error) {
	useCase, err := c.WebhookUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook use case for webhook handler: %w", err)
	}
	return paymentHTTP.NewWebhookHandler(useCase, c.Logger()), nil
}
