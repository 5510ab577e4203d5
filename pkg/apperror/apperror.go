// Package apperror holds the error taxonomy shared by the HTTP layer, the
// Integration Backend client and the workflow step.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindAuth                Kind = "AUTH"
	KindValidation          Kind = "VALIDATION"
	KindNotFound            Kind = "NOT_FOUND"
	KindConfiguration       Kind = "CONFIGURATION"
	KindUpstream            Kind = "UPSTREAM"
	KindMalformedIdentifier Kind = "MALFORMED_IDENTIFIER"
	KindInternal            Kind = "INTERNAL"
)

// Error is a classified error. Message is safe to show to clients; Err is
// the underlying cause and is only ever logged.
type Error struct {
	Kind    Kind
	Status  int
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

func Unauthorized() *Error {
	return &Error{Kind: KindAuth, Status: http.StatusUnauthorized, Message: "Unauthorized"}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: message}
}

// Configuration marks missing server-side setup (e.g. signing credentials).
// The message is returned to the caller as-is with a 500.
func Configuration(message string) *Error {
	return &Error{Kind: KindConfiguration, Status: http.StatusInternalServerError, Message: message}
}

// Upstream wraps a failed call to the Integration Backend. A status <= 0
// means the platform was unreachable and is reported as 500.
func Upstream(status int, message string, err error) *Error {
	if status <= 0 {
		status = http.StatusInternalServerError
	}
	return &Error{Kind: KindUpstream, Status: status, Message: message, Err: err}
}

func MalformedIdentifier(message string) *Error {
	return &Error{Kind: KindMalformedIdentifier, Status: http.StatusBadRequest, Message: message}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Message: message, Err: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries an *Error of the given kind.
func Is(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

// StatusOf returns the HTTP status for err, 500 for unclassified errors.
func StatusOf(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
