// Package apperr defines the error taxonomy shared by services and the HTTP
// layer. Services return *Error values (usually package-level sentinels) and
// the handler maps their Kind to a status code. Callers should use errors.Is
// to match sentinels.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind uint8

const (
	Internal Kind = iota
	Invalid
	Unauthenticated
	Forbidden
	NotFound
	Conflict
)

// Error carries a user-facing message and a stable machine code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an error without a cause.
func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Invalidf builds a validation error with a formatted message.
func Invalidf(code, format string, args ...any) *Error {
	return &Error{Kind: Invalid, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Internalf wraps an unexpected failure. The message is for logs only.
func Internalf(format string, args ...any) *Error {
	err := fmt.Errorf(format, args...)
	return &Error{Kind: Internal, Code: "internal", Message: "Server error", Err: err}
}

// Common sentinels used by several packages.
var (
	ErrUnauthenticated = New(Unauthenticated, "unauthorized", "Unauthorized")
	ErrForbidden       = New(Forbidden, "forbidden", "You are not allowed to perform this action")
)

// KindOf returns the Kind of the first *Error in the chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// HTTPStatus maps err to a response status.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Invalid, Conflict:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Public returns the message and code safe to show to a client.
func Public(err error) (message, code string) {
	var e *Error
	if errors.As(err, &e) && e.Kind != Internal {
		return e.Message, e.Code
	}
	return "Server error", "internal"
}
