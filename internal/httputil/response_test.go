package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/enrollments/internal/errors"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleErrorGin(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedErr  string
	}{
		{
			name:         "not found",
			err:          apperrors.Wrap(apperrors.ErrNotFound, "course not found"),
			expectedCode: http.StatusNotFound,
			expectedErr:  "not_found",
		},
		{
			name:         "conflict",
			err:          apperrors.ErrConflict,
			expectedCode: http.StatusConflict,
			expectedErr:  "conflict",
		},
		{
			name:         "invalid input",
			err:          apperrors.Wrap(apperrors.ErrInvalidInput, "invalid course id"),
			expectedCode: http.StatusUnprocessableEntity,
			expectedErr:  "invalid_input",
		},
		{
			name:         "unauthorized",
			err:          apperrors.ErrUnauthorized,
			expectedCode: http.StatusUnauthorized,
			expectedErr:  "unauthorized",
		},
		{
			name:         "forbidden",
			err:          apperrors.ErrForbidden,
			expectedCode: http.StatusForbidden,
			expectedErr:  "forbidden",
		},
		{
			name:         "unavailable",
			err:          apperrors.Wrap(apperrors.ErrUnavailable, "redis down"),
			expectedCode: http.StatusServiceUnavailable,
			expectedErr:  "unavailable",
		},
		{
			name:         "unknown error",
			err:          errors.New("boom"),
			expectedCode: http.StatusInternalServerError,
			expectedErr:  "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext()

			HandleErrorGin(c, tt.err, logger)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Equal(t, tt.expectedErr, decodeError(t, w).Error)
		})
	}
}

func TestHandleErrorGin_NilError(t *testing.T) {
	c, w := newTestContext()

	HandleErrorGin(c, nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestHandleErrorGin_HidesInternalDetails(t *testing.T) {
	c, w := newTestContext()

	HandleErrorGin(c, errors.New("dial tcp 10.0.0.1:5432: connection refused"), nil)

	resp := decodeError(t, w)
	assert.Equal(t, "An internal error occurred", resp.Message)
	assert.NotContains(t, w.Body.String(), "10.0.0.1")
}

func TestHandleBadRequestGin(t *testing.T) {
	c, w := newTestContext()

	HandleBadRequestGin(c, errors.New("malformed payload"), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "bad_request", resp.Error)
	assert.Equal(t, "malformed payload", resp.Message)
}

func TestHandleValidationErrorGin(t *testing.T) {
	c, w := newTestContext()

	HandleValidationErrorGin(c, errors.New("course_id: must not be blank"), nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "validation_error", decodeError(t, w).Error)
}
