package models

import (
	"errors"
	"fmt"
)

// ValidationError marks bad or missing user input. Recoverable: the user
// corrects the input and retries.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NetworkError marks a transport-level failure talking to the remote store:
// connection errors, timeouts, non-2xx statuses. Recoverable by retry.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("remote store %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ReferenceDataError marks a failed reference-list load. The workflow degrades
// to a cached or default catalog instead of blocking.
type ReferenceDataError struct {
	Err error
}

func (e *ReferenceDataError) Error() string {
	return fmt.Sprintf("reference lists unavailable: %v", e.Err)
}

func (e *ReferenceDataError) Unwrap() error { return e.Err }

var (
	// ErrNotFound is returned when a referenced folio does not exist in the
	// remote store. Surfaced distinctly so callers can tell create from update.
	ErrNotFound = errors.New("plan not found")

	// ErrNoValidLines is returned by aggregation when the working set holds no
	// complete debt line.
	ErrNoValidLines = &ValidationError{Field: "lines", Message: "no valid lines"}

	// ErrOperationInFlight is returned when a calculate or commit is triggered
	// while a previous one is still running on the same session.
	ErrOperationInFlight = errors.New("operation already in flight")
)
