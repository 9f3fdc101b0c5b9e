package domain

import (
	"github.com/allisson/enrollments/internal/errors"
)

// Notification errors.
var (
	// ErrQueueEmpty is returned by Pop when the overflow queue holds nothing.
	ErrQueueEmpty = errors.New("overflow queue is empty")

	// ErrDispatchFailed indicates every publish attempt failed.
	ErrDispatchFailed = errors.New("notification dispatch failed")

	// ErrQueueDrain indicates a sweep could not pop or push back a task.
	ErrQueueDrain = errors.New("overflow queue drain failed")

	// ErrMalformedMessage indicates a bus delivery that cannot be decoded.
	ErrMalformedMessage = errors.Wrap(errors.ErrInvalidInput, "malformed notification message")

	// ErrBusUnavailable indicates the bus connection is closed.
	ErrBusUnavailable = errors.Wrap(errors.ErrUnavailable, "notification bus unavailable")

	// ErrPublishNacked indicates the broker refused a publishing.
	ErrPublishNacked = errors.New("notification publish nacked by broker")

	// ErrPublishUnroutable indicates a publishing matched no queue and was returned.
	ErrPublishUnroutable = errors.New("notification publish returned as unroutable")
)
