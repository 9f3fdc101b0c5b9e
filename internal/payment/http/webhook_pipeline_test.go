package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/enrollments/internal/database"
	enrollmentRepository "github.com/allisson/enrollments/internal/enrollment/repository"
	enrollmentUseCase "github.com/allisson/enrollments/internal/enrollment/usecase"
	notificationDomain "github.com/allisson/enrollments/internal/notification/domain"
	notificationRepository "github.com/allisson/enrollments/internal/notification/repository"
	notificationUseCase "github.com/allisson/enrollments/internal/notification/usecase"
	notificationMocks "github.com/allisson/enrollments/internal/notification/usecase/mocks"
	paymentRepository "github.com/allisson/enrollments/internal/payment/repository"
	paymentService "github.com/allisson/enrollments/internal/payment/service"
	paymentUseCase "github.com/allisson/enrollments/internal/payment/usecase"
)

const pipelineSecret = "whsec_test"

type pipeline struct {
	router    *gin.Engine
	sqlMock   sqlmock.Sqlmock
	redis     *miniredis.Miniredis
	publisher *notificationMocks.MockPublisher
}

// newPipeline wires the webhook route to real use cases backed by sqlmock and miniredis.
// Only the bus publisher is mocked.
func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		assert.NoError(t, sqlMock.ExpectationsWereMet())
		_ = client.Close()
		_ = db.Close()
	})

	enrollments := enrollmentUseCase.NewEnrollmentUseCase(
		database.NewTxManager(db),
		enrollmentRepository.NewPostgreSQLCourseRepository(db),
		enrollmentRepository.NewPostgreSQLUserRepository(db),
		enrollmentRepository.NewRedisCourseCache(client, time.Hour),
		logger,
	)

	publisher := &notificationMocks.MockPublisher{}
	dispatcher := notificationUseCase.NewDispatcher(
		notificationUseCase.DispatcherConfig{MaxAttempts: 1, InitialBackoff: time.Millisecond},
		publisher,
		notificationRepository.NewRedisOverflowRepository(client),
		logger,
	)

	webhooks := paymentUseCase.NewWebhookUseCase(
		paymentUseCase.WebhookConfig{Timeout: 5 * time.Second, IdempotencyTTL: 24 * time.Hour},
		paymentService.NewSignatureVerifier([]byte(pipelineSecret)),
		paymentRepository.NewRedisLedgerRepository(client),
		paymentRepository.NewRedisFailedPaymentRepository(client),
		enrollments,
		dispatcher,
		logger,
	)

	router := gin.New()
	router.POST("/v1/payments/webhook", NewWebhookHandler(webhooks, logger).HandleWebhook)

	return &pipeline{router: router, sqlMock: sqlMock, redis: mr, publisher: publisher}
}

func (p *pipeline) expectEnrollment() {
	p.sqlMock.ExpectBegin()
	p.sqlMock.ExpectQuery(regexp.QuoteMeta(`FROM courses WHERE id = $1`)).
		WithArgs("C1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "price", "updated_at"}).
			AddRow("C1", "Go Basics", "", int64(4999), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	p.sqlMock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id FROM course_students WHERE course_id = $1`)).
		WithArgs("C1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
	p.sqlMock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs("U1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "first_name", "last_name", "scheduled_for_deletion"}).
			AddRow("U1", "u1@example.com", "Ada", "Lovelace", nil))
	p.sqlMock.ExpectQuery(regexp.QuoteMeta(`SELECT course_id FROM user_courses WHERE user_id = $1`)).
		WithArgs("U1").
		WillReturnRows(sqlmock.NewRows([]string{"course_id"}))
	p.sqlMock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM course_students`)).
		WithArgs("C1", "U1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	p.sqlMock.ExpectExec(regexp.QuoteMeta(`INSERT INTO course_students`)).
		WithArgs("C1", "U1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	p.sqlMock.ExpectExec(regexp.QuoteMeta(`INSERT INTO user_courses`)).
		WithArgs("U1", "C1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	p.sqlMock.ExpectCommit()
}

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(pipelineSecret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

const authorizedBody = `{"event":"payment.authorized","payload":{"payment":{"entity":{"id":"evt_1","notes":{"courseId":"C1","userId":"U1"}}}}}`

func TestWebhookPipeline_EnrollsOnceAndNotifies(t *testing.T) {
	p := newPipeline(t)
	p.expectEnrollment()
	p.publisher.On("Publish", mock.Anything, notificationDomain.EnrollmentMessage{
		Email:    "u1@example.com",
		CourseID: "C1",
	}).Return(nil).Once()

	w := postWebhook(p.router, authorizedBody, sign(authorizedBody))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeWebhookResponse(t, w).Success)

	processed, err := p.redis.SIsMember(paymentRepository.ProcessedPaymentsKey, "evt_1")
	require.NoError(t, err)
	assert.True(t, processed)

	// A redelivery is acknowledged without touching the store or the bus.
	w = postWebhook(p.router, authorizedBody, sign(authorizedBody))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Duplicate webhook ignored.", decodeWebhookResponse(t, w).Message)
	p.publisher.AssertExpectations(t)
}

func TestWebhookPipeline_BusDownParksNotification(t *testing.T) {
	p := newPipeline(t)
	p.expectEnrollment()
	p.publisher.On("Publish", mock.Anything, mock.Anything).Return(context.DeadlineExceeded).Once()

	w := postWebhook(p.router, authorizedBody, sign(authorizedBody))

	assert.Equal(t, http.StatusOK, w.Code)

	parked, err := p.redis.List(notificationDomain.FailedEmailsQueue)
	require.NoError(t, err)
	require.Len(t, parked, 1)
	assert.Contains(t, parked[0], `"email":"u1@example.com"`)
	assert.Contains(t, parked[0], `"courseId":"C1"`)
}

func TestWebhookPipeline_RejectsForgedSignature(t *testing.T) {
	p := newPipeline(t)

	w := postWebhook(p.router, authorizedBody, sign(authorizedBody+" "))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, decodeWebhookResponse(t, w).Success)
	assert.False(t, p.redis.Exists(paymentRepository.ProcessedPaymentsKey))
	p.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}
