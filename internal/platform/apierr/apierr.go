package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindInvalidState    Kind = "invalid_state"
	KindConflict        Kind = "conflict"
	KindValidation      Kind = "validation_error"
	KindUnauthenticated Kind = "unauthenticated"
	KindUnauthorized    Kind = "unauthorized"
	KindInternal        Kind = "internal"
)

func (k Kind) Status() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState, KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindUnauthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind   Kind
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apierr.ErrNotFound) works
// regardless of code or message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Kind != "" && t.Kind == e.Kind && t.Code == "" && t.Err == nil
}

func New(status int, code string, err error) *Error {
	return &Error{Kind: kindForStatus(status), Status: status, Code: code, Err: err}
}

func newKind(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Status: kind.Status(), Code: code, Err: fmt.Errorf(format, args...)}
}

func NotFound(code, format string, args ...any) *Error {
	return newKind(KindNotFound, code, format, args...)
}

func InvalidState(code, format string, args ...any) *Error {
	return newKind(KindInvalidState, code, format, args...)
}

func Conflict(code, format string, args ...any) *Error {
	return newKind(KindConflict, code, format, args...)
}

func Validation(code, format string, args ...any) *Error {
	return newKind(KindValidation, code, format, args...)
}

func Unauthenticated(code, format string, args ...any) *Error {
	return newKind(KindUnauthenticated, code, format, args...)
}

func Unauthorized(code, format string, args ...any) *Error {
	return newKind(KindUnauthorized, code, format, args...)
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Code: "internal", Err: err}
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrInvalidState    = &Error{Kind: KindInvalidState}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrUnauthorized    = &Error{Kind: KindUnauthorized}
)

func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != "" {
		return ae.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool { return err != nil && KindOf(err) == kind }

func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		if ae.Status != 0 {
			return ae.Status
		}
		return ae.Kind.Status()
	}
	return http.StatusInternalServerError
}

func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Code != "" {
		return ae.Code
	}
	return string(KindOf(err))
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusUnauthorized:
		return KindUnauthenticated
	case http.StatusForbidden:
		return KindUnauthorized
	default:
		return KindInternal
	}
}
