// Package domerrors defines the error taxonomy shared across services and
// transport. Codes drive both HTTP status mapping and user-facing behavior:
// validation and not-found outcomes are surfaced verbatim, everything else is
// collapsed into a generic message before it reaches a client.
package domerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for propagation policy decisions.
type Code string

const (
	// CodeValidation marks bad input shape. Never reaches the network.
	CodeValidation Code = "validation_error"
	// CodeNotFound marks an upstream that explicitly has no record.
	CodeNotFound Code = "not_found"
	// CodeUnavailable marks an unreachable or misconfigured upstream.
	CodeUnavailable Code = "unavailable"
	// CodeUnauthorized marks failed authentication on the admin surface.
	CodeUnauthorized Code = "unauthorized"
	// CodeBadRequest marks a malformed transport-level request.
	CodeBadRequest Code = "bad_request"
	// CodeInternal marks an unexpected fault. Detail stays server-side.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. Message is safe for operators; whether it is
// safe for end users depends on the code.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// CodeOf extracts the code from an error chain, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the coded message from an error chain. Returns empty for
// uncoded errors so callers don't leak raw error text.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

// HTTPStatus maps a code to the HTTP status used by the transport layer.
func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
