// Package dto provides data transfer objects for the course and account HTTP handlers.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/enrollments/internal/validation"
)

// CoursePathParams holds the identifiers taken from the course routes.
type CoursePathParams struct {
	CourseID string
	UserID   string
}

// Validate checks the course identifier and, when present, the user identifier.
func (p *CoursePathParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.CourseID,
			validation.Required,
			customValidation.NotBlank,
			customValidation.ResourceID,
		),
		validation.Field(&p.UserID,
			customValidation.ResourceID,
		),
	)
}

// ScheduleDeletionParams holds the identifier of the account to delete.
type ScheduleDeletionParams struct {
	UserID string
}

// Validate checks the user identifier.
func (p *ScheduleDeletionParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.UserID,
			validation.Required,
			customValidation.NotBlank,
			customValidation.ResourceID,
		),
	)
}
