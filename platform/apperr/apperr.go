// Package apperr defines application-level error types shared across modules.
// Errors carry a Kind that maps onto an HTTP status at the transport edge,
// so services and repositories never import net/http.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into a broad category.
type Kind int

const (
	// KindInternal is the default for unexpected failures.
	KindInternal Kind = iota
	// KindNotFound indicates a missing resource.
	KindNotFound
	// KindValidation indicates invalid input.
	KindValidation
	// KindConflict indicates a state conflict (duplicate, already processed).
	KindConflict
	// KindUnauthorized indicates missing or invalid credentials.
	KindUnauthorized
	// KindForbidden indicates the caller lacks permission.
	KindForbidden
	// KindBadRequest indicates a malformed request.
	KindBadRequest
	// KindGone indicates an expired or consumed resource.
	KindGone
)

// Error is a domain error with a Kind and a caller-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to an HTTP status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindGone:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// New creates an error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error with the given kind and message, wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// NotFound is shorthand for a KindNotFound error.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Validation is shorthand for a KindValidation error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Conflict is shorthand for a KindConflict error.
func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// Unauthorized is shorthand for a KindUnauthorized error.
func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

// Forbidden is shorthand for a KindForbidden error.
func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

// BadRequest is shorthand for a KindBadRequest error.
func BadRequest(message string) *Error {
	return New(KindBadRequest, message)
}

// Internal is shorthand for a KindInternal error wrapping cause.
func Internal(message string, cause error) *Error {
	return Wrap(KindInternal, message, cause)
}

// KindOf extracts the Kind from err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
