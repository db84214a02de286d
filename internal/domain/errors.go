package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a business error; the request boundary maps it to a status code.
type ErrorKind string

const (
	KindValidation   ErrorKind = "VALIDATION_ERROR"
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindInvalidState ErrorKind = "INVALID_STATE"
	KindPersistence  ErrorKind = "PERSISTENCE_ERROR"
	KindInternal     ErrorKind = "INTERNAL_ERROR"
)

// Error carries a kind discriminant alongside the human readable message.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the bare kind sentinels below, so callers can write
// errors.Is(err, domain.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrInvalidState = &Error{Kind: KindInvalidState}
	ErrPersistence  = &Error{Kind: KindPersistence}
	ErrInternal     = &Error{Kind: KindInternal}
)

func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidStatef(format string, args ...any) error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// Persistence wraps a store failure. The cause stays reachable through
// errors.Unwrap but the boundary never shows it to callers.
func Persistence(message string, err error) error {
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal for anything unanticipated.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// MessageOf returns the client-safe message of a business error.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return string(KindOf(err))
}
