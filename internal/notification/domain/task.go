// Package domain defines enrollment notifications and the overflow tasks that carry
// them while the bus is unreachable.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Overflow queue names.
const (
	FailedEmailsQueue   = "failed-emails"
	FailedPaymentsQueue = "failed-payments"
)

// TaskTypeEnrollmentEmail marks tasks that re-publish an enrollment notification.
const TaskTypeEnrollmentEmail = "enrollment_email"

// EnrollmentMessage is the bus payload announcing an enrollment.
type EnrollmentMessage struct {
	Email    string `json:"email"`
	CourseID string `json:"courseId"`
}

// Task is an undelivered notification parked on an overflow queue.
type Task struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Email     string    `json:"email"`
	CourseID  string    `json:"courseId"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"lastError,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewEnrollmentTask creates a task for msg.
func NewEnrollmentTask(msg EnrollmentMessage, attempts int, lastErr error, now time.Time) *Task {
	task := &Task{
		ID:        uuid.Must(uuid.NewV7()),
		Type:      TaskTypeEnrollmentEmail,
		Email:     msg.Email,
		CourseID:  msg.CourseID,
		Attempts:  attempts,
		CreatedAt: now.UTC(),
	}
	if lastErr != nil {
		task.LastError = lastErr.Error()
	}
	return task
}

// Message returns the bus payload carried by the task.
func (t *Task) Message() EnrollmentMessage {
	return EnrollmentMessage{Email: t.Email, CourseID: t.CourseID}
}

// DispatchStatus reports where a dispatched notification ended up.
type DispatchStatus string

const (
	DispatchPublished  DispatchStatus = "published"
	DispatchOverflowed DispatchStatus = "overflowed"
	// DispatchLost means both the bus and the overflow queue refused the task.
	DispatchLost DispatchStatus = "lost"
)

// SweepResult summarizes one overflow sweep.
type SweepResult struct {
	Queue     string `json:"queue"`
	Scanned   int    `json:"scanned"`
	Published int    `json:"published"`
	Requeued  int    `json:"requeued"`
	Dropped   int    `json:"dropped"`
}
