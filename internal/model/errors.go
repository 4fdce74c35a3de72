package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
)

// ValidationError represents a validation error in the domain
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a new validation error
func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

// IsValidationError checks if an error is a validation error (including wrapped errors)
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// NotFoundError reports a missing row or record.
type NotFoundError struct {
	Field   string
	Message string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("not found %s: %s", e.Field, e.Message)
}

func (e NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError constructs NotFoundError
func NewNotFoundError(field, message string) NotFoundError {
	return NotFoundError{Field: field, Message: message}
}

// IsNotFoundError checks if error is NotFoundError
func IsNotFoundError(err error) bool {
	var ne NotFoundError
	return errors.As(err, &ne)
}

// ConflictError represents a duplicate resource error
type ConflictError struct {
	Field   string
	Message string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s: %s", e.Field, e.Message)
}

func (e ConflictError) Unwrap() error { return ErrConflict }

// NewConflictError constructs ConflictError
func NewConflictError(field, message string) ConflictError {
	return ConflictError{Field: field, Message: message}
}

// IsConflictError checks if error is ConflictError
func IsConflictError(err error) bool {
	var ce ConflictError
	return errors.As(err, &ce)
}

// UpstreamError wraps a failure of a remote collaborator (row store, fitness API).
type UpstreamError struct {
	Service string
	Err     error
}

func (e UpstreamError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e UpstreamError) Unwrap() error { return e.Err }

// IsUpstreamError checks if error is UpstreamError
func IsUpstreamError(err error) bool {
	var ue UpstreamError
	return errors.As(err, &ue)
}
