// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidFormat is returned when data is not in the expected format.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidEmail is returned when an email address is malformed.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidPassword is returned when a password doesn't meet requirements.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrInvalidPESEL is returned when a PESEL number is malformed or its
	// checksum does not match.
	ErrInvalidPESEL = errors.New("invalid PESEL number")

	// ErrUnknownCardStatus is returned when a card status discriminator does
	// not name one of the four known statuses. A record carrying such a value
	// is corrupt; callers must abort the operation rather than guess.
	ErrUnknownCardStatus = errors.New("unknown card status")

	// ErrUnknownCardOperation is returned when a card operation name does not
	// belong to the supported operation set.
	ErrUnknownCardOperation = errors.New("unknown card operation")
)

// ValidationError provides field-level context for a validation failure.
type ValidationError struct {
	Field   string // The field that failed validation
	Message string // Human-readable description of the failure
	Err     error  // Underlying sentinel error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError for the given field.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
