// Package apperr classifies service errors so transports can map them to
// status codes without inspecting messages.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels returned by stores; services translate them into classified errors.
var (
	ErrDuplicate = errors.New("duplicate record")
	ErrNotFound  = errors.New("record not found")
	ErrStale     = errors.New("record changed concurrently")
)

// Kind is the error class.
type Kind string

const (
	KindInvalid  Kind = "invalid"
	KindNotFound Kind = "not_found"
	KindConflict Kind = "conflict"
	KindInternal Kind = "internal"
)

// Error is a classified error with a user-facing message and optional details.
type Error struct {
	Kind    Kind
	Message string
	Details string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Details != "":
		return fmt.Sprintf("%s: %s: %v", e.Message, e.Details, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Details != "":
		return e.Message + ": " + e.Details
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status equivalent of the kind.
func (e *Error) Status() int {
	return StatusOf(e.Kind)
}

// StatusOf maps a kind to an HTTP status.
func StatusOf(k Kind) int {
	switch k {
	case KindInvalid:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Invalid reports bad input.
func Invalid(msg string, args ...any) *Error {
	return &Error{Kind: KindInvalid, Message: fmt.Sprintf(msg, args...)}
}

// NotFound reports a missing record.
func NotFound(msg string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(msg, args...)}
}

// Conflict reports a state clash such as a duplicate import.
func Conflict(msg string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(msg, args...)}
}

// Internal wraps an unexpected failure.
func Internal(err error, msg string, args ...any) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(msg, args...), Err: err}
}

// WithDetails sets Details and returns e.
func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}

// As returns err as an *Error. Unclassified errors become Internal.
func As(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// Is reports whether err carries kind k.
func Is(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}
