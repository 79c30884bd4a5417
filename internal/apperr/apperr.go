// Package apperr defines the error kinds shared by the repositories and the
// HTTP layer. Each kind maps to one stable, machine-checkable identifier.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation         Kind = "validation_error"
	KindForbidden          Kind = "forbidden"
	KindUnauthenticated    Kind = "unauthenticated"
	KindInvalidPosition    Kind = "invalid_position"
	KindStoreUnavailable   Kind = "store_unavailable"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindRateLimited        Kind = "rate_limited"
	KindInternal           Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	// Fields carries per-field detail for validation errors.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind so callers can compare against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "access denied"}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated, Message: "missing or invalid token"}
	ErrInvalidPosition    = &Error{Kind: KindInvalidPosition, Message: "invalid position"}
	ErrStoreUnavailable   = &Error{Kind: KindStoreUnavailable, Message: "storage temporarily unavailable"}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "invalid username or password"}
	ErrRateLimited        = &Error{Kind: KindRateLimited, Message: "too many requests, try again later"}
	ErrValidation         = &Error{Kind: KindValidation, Message: "invalid input"}
)

// Validation builds a validation error with per-field detail.
func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// Unavailable wraps a backing store failure. An error that already carries a
// kind is returned unchanged.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindStoreUnavailable, Message: ErrStoreUnavailable.Message, Err: err}
}

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
