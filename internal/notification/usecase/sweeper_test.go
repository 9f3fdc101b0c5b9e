package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	notificationDomain "github.com/allisson/enrollments/internal/notification/domain"
	notificationMocks "github.com/allisson/enrollments/internal/notification/usecase/mocks"
)

func pushTasks(t *testing.T, overflow OverflowRepository, emails ...string) {
	t.Helper()
	for _, email := range emails {
		task := notificationDomain.NewEnrollmentTask(
			notificationDomain.EnrollmentMessage{Email: email, CourseID: "C1"},
			3,
			errBusDown,
			time.Now(),
		)
		require.NoError(t, overflow.Push(context.Background(), notificationDomain.FailedEmailsQueue, task))
	}
}

func messageFor(email string) notificationDomain.EnrollmentMessage {
	return notificationDomain.EnrollmentMessage{Email: email, CourseID: "C1"}
}

func TestSweeper_EmptyQueue(t *testing.T) {
	_, overflow := newTestOverflow(t)
	publisher := &notificationMocks.MockPublisher{}

	result, err := NewSweeper(publisher, overflow, testLogger()).Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, notificationDomain.SweepResult{Queue: notificationDomain.FailedEmailsQueue}, result)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestSweeper_PublishesInFIFOOrder(t *testing.T) {
	mr, overflow := newTestOverflow(t)
	pushTasks(t, overflow, "a@example.com", "b@example.com")

	publisher := &notificationMocks.MockPublisher{}
	first := publisher.On("Publish", mock.Anything, messageFor("a@example.com")).Return(nil).Once()
	publisher.On("Publish", mock.Anything, messageFor("b@example.com")).Return(nil).Once().NotBefore(first)

	result, err := NewSweeper(publisher, overflow, testLogger()).Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 2, result.Published)
	assert.False(t, mr.Exists(notificationDomain.FailedEmailsQueue))
	publisher.AssertExpectations(t)
}

func TestSweeper_RequeuesFailuresToTail(t *testing.T) {
	_, overflow := newTestOverflow(t)
	pushTasks(t, overflow, "a@example.com", "b@example.com")

	publisher := &notificationMocks.MockPublisher{}
	publisher.On("Publish", mock.Anything, messageFor("a@example.com")).Return(errBusDown).Once()
	publisher.On("Publish", mock.Anything, messageFor("b@example.com")).Return(nil).Once()

	result, err := NewSweeper(publisher, overflow, testLogger()).Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Published)
	assert.Equal(t, 1, result.Requeued)
	publisher.AssertExpectations(t)

	task, err := overflow.Pop(context.Background(), notificationDomain.FailedEmailsQueue)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", task.Email)
	assert.Equal(t, 4, task.Attempts)
	assert.Equal(t, errBusDown.Error(), task.LastError)
}

func TestSweeper_PersistentFailureEndsAfterOnePass(t *testing.T) {
	_, overflow := newTestOverflow(t)
	pushTasks(t, overflow, "a@example.com", "b@example.com", "c@example.com")

	publisher := &notificationMocks.MockPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errBusDown)

	result, err := NewSweeper(publisher, overflow, testLogger()).Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, result.Scanned)
	assert.Equal(t, 3, result.Requeued)
	publisher.AssertNumberOfCalls(t, "Publish", 3)

	n, err := overflow.Len(context.Background(), notificationDomain.FailedEmailsQueue)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestSweeper_DropsMalformedEntries(t *testing.T) {
	mr, overflow := newTestOverflow(t)
	_, err := mr.Lpush(notificationDomain.FailedEmailsQueue, "{broken")
	require.NoError(t, err)
	pushTasks(t, overflow, "a@example.com")

	publisher := &notificationMocks.MockPublisher{}
	publisher.On("Publish", mock.Anything, messageFor("a@example.com")).Return(nil).Once()

	result, err := NewSweeper(publisher, overflow, testLogger()).Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 1, result.Dropped)
	assert.Equal(t, 1, result.Published)
}

func TestSweeper_LenError(t *testing.T) {
	overflow := &notificationMocks.MockOverflowRepository{}
	overflow.On("Len", mock.Anything, notificationDomain.FailedEmailsQueue).
		Return(int64(0), errors.New("redis down")).
		Once()

	_, err := NewSweeper(&notificationMocks.MockPublisher{}, overflow, testLogger()).Sweep(context.Background())

	assert.ErrorIs(t, err, notificationDomain.ErrQueueDrain)
	overflow.AssertExpectations(t)
}

func TestSweeper_PopError(t *testing.T) {
	overflow := &notificationMocks.MockOverflowRepository{}
	overflow.On("Len", mock.Anything, notificationDomain.FailedEmailsQueue).Return(int64(2), nil).Once()
	overflow.On("Pop", mock.Anything, notificationDomain.FailedEmailsQueue).
		Return(nil, errors.New("redis down")).
		Once()

	result, err := NewSweeper(&notificationMocks.MockPublisher{}, overflow, testLogger()).Sweep(context.Background())

	assert.ErrorIs(t, err, notificationDomain.ErrQueueDrain)
	assert.Zero(t, result.Scanned)
	overflow.AssertExpectations(t)
}

func TestSweeper_PushBackError(t *testing.T) {
	task := notificationDomain.NewEnrollmentTask(messageFor("a@example.com"), 3, errBusDown, time.Now())

	overflow := &notificationMocks.MockOverflowRepository{}
	overflow.On("Len", mock.Anything, notificationDomain.FailedEmailsQueue).Return(int64(1), nil).Once()
	overflow.On("Pop", mock.Anything, notificationDomain.FailedEmailsQueue).Return(task, nil).Once()
	overflow.On("Push", mock.Anything, notificationDomain.FailedEmailsQueue, task).
		Return(errors.New("redis down")).
		Once()

	publisher := &notificationMocks.MockPublisher{}
	publisher.On("Publish", mock.Anything, messageFor("a@example.com")).Return(errBusDown).Once()

	result, err := NewSweeper(publisher, overflow, testLogger()).Sweep(context.Background())

	assert.ErrorIs(t, err, notificationDomain.ErrQueueDrain)
	assert.Equal(t, 1, result.Dropped)
	overflow.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestSweeper_StopsOnCanceledContext(t *testing.T) {
	_, overflow := newTestOverflow(t)
	pushTasks(t, overflow, "a@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSweeper(&notificationMocks.MockPublisher{}, overflow, testLogger()).Sweep(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, notificationDomain.ErrQueueDrain)
}
