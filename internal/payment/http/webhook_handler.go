// Package http provides the payment gateway webhook endpoint.
package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/enrollments/internal/errors"
	"github.com/allisson/enrollments/internal/httputil"
	paymentDomain "github.com/allisson/enrollments/internal/payment/domain"
	"github.com/allisson/enrollments/internal/payment/http/dto"
	paymentUseCase "github.com/allisson/enrollments/internal/payment/usecase"
)

const (
	// SignatureHeader carries the hex HMAC-SHA256 of the raw body.
	SignatureHeader = "X-Razorpay-Signature"

	maxWebhookBodyBytes = 1 << 20
)

// WebhookHandler receives payment gateway deliveries.
type WebhookHandler struct {
	webhookUseCase paymentUseCase.WebhookUseCase
	logger         *slog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(webhookUseCase paymentUseCase.WebhookUseCase, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhookUseCase: webhookUseCase,
		logger:         logger,
	}
}

// HandleWebhook processes a signed delivery.
// POST /v1/payments/webhook - 200 when processed or ignored as duplicate, 400 when the
// gateway must not redeliver, 500 when it should.
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	outcome, err := h.webhookUseCase.Handle(c.Request.Context(), body, c.GetHeader(SignatureHeader))
	if err != nil {
		h.handleError(c, err)
		return
	}

	status := http.StatusOK
	if outcome == paymentDomain.OutcomeUnhandled {
		status = http.StatusBadRequest
	}
	c.JSON(status, dto.MapOutcomeToResponse(outcome))
}

func (h *WebhookHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, paymentDomain.ErrInvalidSignature):
		h.logger.Warn("webhook signature verification failed", slog.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusBadRequest, dto.WebhookResponse{
			Success: false,
			Message: "Invalid request. Signature verification failed.",
		})
	case errors.Is(err, apperrors.ErrInvalidInput):
		httputil.HandleBadRequestGin(c, err, h.logger)
	default:
		h.logger.Error("webhook processing failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, dto.WebhookResponse{
			Success: false,
			Message: "Error verifying payment.",
		})
	}
}
