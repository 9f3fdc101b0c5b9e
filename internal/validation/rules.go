// Package validation provides the jellydator/validation rules shared by the HTTP
// payload and identifier checks.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/enrollments/internal/errors"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// Course and user identifiers are opaque gateway-side strings (ObjectId hex,
	// UUIDs or short slugs), restricted to a URL and key safe alphabet.
	resourceIDRegex = regexp.MustCompile(`^[A-Za-z0-9_\-]{1,64}$`)

	hexSHA256Regex = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// Email validates email format using regex
var Email = validation.NewStringRuleWithError(
	func(s string) bool {
		return emailRegex.MatchString(s)
	},
	validation.NewError("validation_email_format", "must be a valid email address"),
)

// ResourceID validates a course or user identifier.
var ResourceID = validation.NewStringRuleWithError(
	func(s string) bool {
		return resourceIDRegex.MatchString(s)
	},
	validation.NewError("validation_resource_id", "must be 1-64 letters, digits, '-' or '_'"),
)

// HexSHA256 validates a hex encoded SHA-256 digest.
var HexSHA256 = validation.NewStringRuleWithError(
	func(s string) bool {
		return hexSHA256Regex.MatchString(s)
	},
	validation.NewError("validation_hex_sha256", "must be a 64 character hex digest"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)
