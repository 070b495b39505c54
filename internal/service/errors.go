package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure. The transport maps each kind to a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindInvalidOperation
	KindNotFound
	KindPermissionDenied
	KindConflict
	KindUnauthenticated
	KindThrottled
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInvalidOperation:
		return "invalid_operation"
	case KindNotFound:
		return "not_found"
	case KindPermissionDenied:
		return "permission_denied"
	case KindConflict:
		return "conflict"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindThrottled:
		return "throttled"
	default:
		return "internal"
	}
}

// Error is the error type returned by every service operation.
type Error struct {
	Kind Kind
	// Detail is safe to show to the caller.
	Detail string
	// Fields holds per-field validation messages.
	Fields map[string][]string
	// Err is the underlying cause, kept for logs only.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// NewError creates a service error for use outside the package.
func NewError(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func validationError(fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Detail: "Invalid input.", Fields: fields}
}

func internalError(err error) *Error {
	return &Error{Kind: KindInternal, Detail: "Internal server error.", Err: err}
}

// fieldErrors collects validation messages per field.
type fieldErrors map[string][]string

func (f fieldErrors) add(field, msg string) {
	f[field] = append(f[field], msg)
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return validationError(f)
}

// storeError passes service errors through unchanged and classifies storage errors.
func storeError(err error) error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return notFoundOr(err)
}
