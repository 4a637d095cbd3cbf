package engine

import (
	"errors"
	"fmt"
)

// Error represents an operation failure the caller can act on.
//
// Error codes:
//   - VALIDATION: missing or malformed input
//   - DOMAIN: well-formed input that violates a business rule
//   - NOT_FOUND: the referenced id is absent from the store
//
// Details carries extra context merged into the error response body,
// e.g. the list of valid statuses.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is the human-readable description returned to clients.
	Message string

	// Details contains additional context.
	Details map[string]any
}

// ErrorCode categorizes operation errors.
type ErrorCode string

const (
	// ErrCodeValidation indicates missing or malformed input.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeDomain indicates a business rule violation.
	ErrCodeDomain ErrorCode = "DOMAIN"

	// ErrCodeNotFound indicates the referenced record does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// ErrStopped is returned for operations submitted to, or still queued in,
// an engine whose Run loop has ended.
var ErrStopped = errors.New("engine stopped")

// ErrUnsupported is returned for operations the entity does not offer,
// such as deleting an order.
var ErrUnsupported = errors.New("operation not supported")

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsValidation returns true if the error is a validation error.
// Uses errors.As to handle wrapped errors.
func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

// IsDomain returns true if the error is a business rule violation.
// Uses errors.As to handle wrapped errors.
func IsDomain(err error) bool {
	return hasCode(err, ErrCodeDomain)
}

// IsNotFound returns true if the error is a not-found error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// NewValidationError creates an Error for missing or malformed input.
func NewValidationError(message string, details map[string]any) *Error {
	return &Error{Code: ErrCodeValidation, Message: message, Details: details}
}

// NewDomainError creates an Error for a business rule violation.
func NewDomainError(message string, details map[string]any) *Error {
	return &Error{Code: ErrCodeDomain, Message: message, Details: details}
}

// NewNotFoundError creates an Error for an absent record.
func NewNotFoundError(message string) *Error {
	return &Error{Code: ErrCodeNotFound, Message: message}
}
