// Package errors defines the console's error taxonomy: validation failures
// caught before dispatch, and transport failures reported by the orders service.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Validation sentinels. A ValidationError always wraps exactly one of them.
var (
	ErrRequired       = stderrors.New("value is required")
	ErrNotInteger     = stderrors.New("value is not an integer")
	ErrLengthMismatch = stderrors.New("list lengths differ")
	ErrOutOfRange     = stderrors.New("value out of range")
	ErrInvalidStatus  = stderrors.New("invalid order status")
	ErrMalformed      = stderrors.New("malformed input")
)

// ErrNotFound is wrapped by the TransportError of a retrieve-by-id that the
// server answered with 404.
var ErrNotFound = stderrors.New("not found")

// GenericServerMessage is shown when a failed response carries no message.
const GenericServerMessage = "server error"

// ValidationError is a client-side rejection. Requests that fail validation are
// never sent.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a validation error for field wrapping kind.
func NewValidationError(field string, kind error, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: kind}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// TransportError is a failed request: the server answered non-2xx or the
// request never completed.
type TransportError struct {
	Op         string
	Method     string
	Path       string
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s %s: status %d: %s", e.Op, e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s %s: %s", e.Op, e.Method, e.Path, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return stderrors.As(err, &v)
}

// IsNotFound reports whether err signals a missing order.
func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrNotFound)
}

// UserMessage returns the text shown to the operator for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var v *ValidationError
	if stderrors.As(err, &v) {
		return v.Error()
	}

	var t *TransportError
	if stderrors.As(err, &t) {
		if t.Message != "" {
			return t.Message
		}
		return GenericServerMessage
	}

	return GenericServerMessage
}
