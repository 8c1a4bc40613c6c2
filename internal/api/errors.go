// Package api defines the wire-level error taxonomy shared by every
// handler and core component. Errors carry a machine-readable kind plus
// a human-readable message; handlers map the kind to an HTTP status.
package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an operation-level failure.
type Kind string

const (
	// KindServiceUnavailable means an external client could not be
	// constructed, usually because credentials are missing or invalid.
	KindServiceUnavailable Kind = "service_unavailable"

	// KindCapacityExceeded means the job registry is full.
	KindCapacityExceeded Kind = "capacity_exceeded"

	// KindNotFound means an unknown job id or file.
	KindNotFound Kind = "not_found"

	// KindValidation means malformed input (bad URL, missing field).
	KindValidation Kind = "validation_error"

	// KindUpstreamFailure means an external call failed after
	// exhausting its retries.
	KindUpstreamFailure Kind = "upstream_failure"

	// KindAuthFailure means an invalid, expired or wrong-domain token.
	KindAuthFailure Kind = "auth_failure"
)

// HTTPStatus maps the kind to its response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case KindCapacityExceeded:
		return http.StatusServiceUnavailable
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindUpstreamFailure:
		return http.StatusBadGateway
	case KindAuthFailure:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure suitable for returning to callers.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// E builds an Error with the given kind and message.
func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf builds an Error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from err, or empty string if err is not an
// *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
