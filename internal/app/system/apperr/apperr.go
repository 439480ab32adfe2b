// Package apperr is the error taxonomy shared by the workflow packages and
// the HTTP surface. Workflows return *Error values; handlers map the Kind to
// a status code through jsonresp.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by how the caller should react to it.
type Kind int

const (
	// KindInternal is anything unclassified. Its message is never shown to callers.
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindForbidden
	KindUnauthorized
	// KindUpstream is a failure of the document store or payment gateway.
	KindUpstream
	// KindUnavailable means a collaborator is not configured at all.
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	case KindUpstream:
		return "upstream"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error carries a Kind, a caller-facing message, and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports a missing or malformed input.
func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

// NotFound reports that a referenced record does not exist.
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// Conflict reports that the current state forbids the operation.
func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

// Forbidden reports that the caller may not act on the resource.
func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

// Unauthorized reports that no caller identity could be established.
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }

// Unavailable reports that a required collaborator is not configured.
func Unavailable(msg string) *Error { return &Error{Kind: KindUnavailable, Message: msg} }

// Upstream wraps a store or gateway failure.
func Upstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

// KindOf returns the Kind of err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is an *Error of kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// Message returns the caller-facing message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
