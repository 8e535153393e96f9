package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = errors.New("validation failed")

	// ErrAuthFailure indicates the catalog refused to exchange the refresh token.
	ErrAuthFailure = errors.New("catalog authentication failed")

	// ErrUpstreamFetch indicates a catalog request failed with a non-retryable status.
	ErrUpstreamFetch = errors.New("catalog fetch failed")

	// ErrDeliveryFailed indicates a release could not be delivered on any channel.
	ErrDeliveryFailed = errors.New("release delivery failed")
)

// ValidationError represents a validation error with detailed field information.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Unwrap lets callers match any ValidationError with errors.Is(err, ErrValidationFailed).
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// UpstreamError carries the status and body of a failed catalog response.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("%s returned HTTP %d: %s", e.Endpoint, e.StatusCode, body)
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstreamFetch
}
