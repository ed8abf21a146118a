// Package domainerrors defines the coded error type shared by all services.
//
// Services construct these at trust and translation boundaries; handlers map
// the code onto an HTTP status via ToHTTPStatus. Stores do not use this
// package directly; they return pkg/platform/sentinel errors which services
// translate into codes, keeping infrastructure facts separate from domain
// judgements.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for programmatic handling.
type Code string

const (
	// CodeValidation marks input that parsed but fails a business rule
	// (comment too short, empty reason where one is mandatory).
	CodeValidation Code = "validation"

	// CodeBadRequest marks requests that could not be understood at all
	// (malformed JSON, missing body).
	CodeBadRequest Code = "bad_request"

	// CodeInvalidInput marks a value that fails parsing at a trust boundary
	// (bad UUID, unknown enum literal).
	CodeInvalidInput Code = "invalid_input"

	// CodeNotFound marks a referenced entity that does not exist.
	CodeNotFound Code = "not_found"

	// CodeConflict marks lost races and duplicate-unique-key outcomes.
	CodeConflict Code = "conflict"

	// CodeInvariantViolation marks a state transition the current status
	// does not permit.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeForbidden marks an actor whose role does not permit the action.
	CodeForbidden Code = "forbidden"

	// CodeUnauthorized marks a missing or unverifiable identity.
	CodeUnauthorized Code = "unauthorized"

	// CodeTimeout marks an aborted transaction or expired deadline.
	CodeTimeout Code = "timeout"

	// CodeInternal marks unexpected infrastructure failure.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. Message is safe to surface to callers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match two domain errors by code and message, so tests
// can compare against a freshly constructed error value.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New constructs a domain error with a code and caller-safe message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. The cause is
// preserved for logs; only Message is surfaced to callers.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is a readability alias for HasCode; handlers use it when branching on
// error classes.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// MessageOf returns the caller-safe message of a domain error, or a generic
// fallback for unexpected errors so internals never leak.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// CodeOf returns the code carried by err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code onto the HTTP status handlers respond with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvariantViolation:
		return http.StatusConflict
	case CodeForbidden:
		return http.StatusForbidden
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
