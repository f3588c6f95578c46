// Package fault defines the error taxonomy shared by the core services. Every
// failing operation returns an error that wraps exactly one kind; handlers
// translate the kind into an HTTP status without inspecting anything else.
package fault

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for transport translation.
type Kind int

const (
	// KindInternal covers unexpected store or media-host failures.
	KindInternal Kind = iota
	// KindInvalidArgument covers malformed or missing identifiers and fields.
	KindInvalidArgument
	// KindUnauthorized covers missing, invalid, expired or stale credentials.
	KindUnauthorized
	// KindForbidden covers mutations attempted by a non-owner.
	KindForbidden
	// KindNotFound covers references to absent entities.
	KindNotFound
	// KindConflict covers unique-field violations on creation.
	KindConflict
)

// Error carries a kind alongside a human-readable message and optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an error of the provided kind.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap annotates an underlying error with a kind and message. A nil cause
// yields a plain kinded error.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// InvalidArgument reports a malformed or missing input.
func InvalidArgument(msg string) error { return New(KindInvalidArgument, msg) }

// Unauthorized reports a failed credential check.
func Unauthorized(msg string) error { return New(KindUnauthorized, msg) }

// Forbidden reports an ownership violation.
func Forbidden(msg string) error { return New(KindForbidden, msg) }

// NotFound reports an absent entity.
func NotFound(msg string) error { return New(KindNotFound, msg) }

// Conflict reports a uniqueness violation.
func Conflict(msg string) error { return New(KindConflict, msg) }

// Internal reports an unexpected failure, preserving the cause.
func Internal(msg string, err error) error { return Wrap(KindInternal, msg, err) }

// KindOf extracts the kind from an error chain, defaulting to KindInternal.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInternal
}

// IsKind reports whether the error chain carries the provided kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a kind to its HTTP status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the outermost kinded message, or a generic fallback for
// errors that never passed through this package.
func Message(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Msg
	}
	return "internal server error"
}
