package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/enrollments/internal/enrollment/http/dto"
	enrollmentUseCase "github.com/allisson/enrollments/internal/enrollment/usecase"
	"github.com/allisson/enrollments/internal/httputil"
	customValidation "github.com/allisson/enrollments/internal/validation"
)

// AccountHandler handles deferred account deletion requests.
type AccountHandler struct {
	accountDeletionUseCase enrollmentUseCase.AccountDeletionUseCase
	logger                 *slog.Logger
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(
	accountDeletionUseCase enrollmentUseCase.AccountDeletionUseCase,
	logger *slog.Logger,
) *AccountHandler {
	return &AccountHandler{
		accountDeletionUseCase: accountDeletionUseCase,
		logger:                 logger,
	}
}

// ScheduleDeletionHandler marks an account for removal after the grace period.
// POST /v1/users/:id/deletion - Returns 202 Accepted with the deletion time.
func (h *AccountHandler) ScheduleDeletionHandler(c *gin.Context) {
	params := dto.ScheduleDeletionParams{UserID: c.Param("id")}
	if err := params.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	scheduledFor, err := h.accountDeletionUseCase.Schedule(c.Request.Context(), params.UserID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusAccepted, dto.ScheduleDeletionResponse{
		UserID:       params.UserID,
		ScheduledFor: scheduledFor,
	})
}
