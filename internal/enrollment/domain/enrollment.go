// Package domain defines the course, user and enrollment entities of the enrollment module.
package domain

import (
	"slices"
	"time"
)

// Course is the authoritative course record. EnrolledUsers is the course side of
// the enrollment relation.
type Course struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         int64     `json:"price"`
	EnrolledUsers []string  `json:"enrolled_users"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasStudent reports whether userID is in the course's enrolled set.
func (c *Course) HasStudent(userID string) bool {
	return slices.Contains(c.EnrolledUsers, userID)
}

// User is the subset of a student profile the pipeline needs. Courses is the
// user side of the enrollment relation.
type User struct {
	ID                   string
	Email                string
	FirstName            string
	LastName             string
	Courses              []string
	ScheduledForDeletion *time.Time
}

// Enrollment is the result of an enrollment transition.
type Enrollment struct {
	Course *Course
	User   *User
	// AlreadyEnrolled is set when the relation existed before the call and nothing was written.
	AlreadyEnrolled bool
}

// DeletionResult summarizes one deferred account deletion scan.
type DeletionResult struct {
	Scanned int      `json:"scanned"`
	Deleted int      `json:"deleted"`
	Failed  int      `json:"failed"`
	UserIDs []string `json:"user_ids"`
}

// AddToSet appends value to set unless it is already present.
func AddToSet(set []string, value string) []string {
	if slices.Contains(set, value) {
		return set
	}
	return append(set, value)
}
