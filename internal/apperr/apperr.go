// Package apperr defines the error kinds surfaced to API callers. Every
// failure returned by the service layer wraps exactly one of the sentinel
// kinds so handlers can map it to a status code with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicate       = errors.New("duplicate resource")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrForbidden       = errors.New("forbidden")
	ErrAuthFailed      = errors.New("authentication failed")
	ErrUnavailable     = errors.New("unavailable")
)

// Error carries a human readable message alongside its kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error { return newf(ErrNotFound, format, args...) }

func Duplicate(format string, args ...any) error { return newf(ErrDuplicate, format, args...) }

func InvalidArgument(format string, args ...any) error {
	return newf(ErrInvalidArgument, format, args...)
}

func Forbidden(format string, args ...any) error { return newf(ErrForbidden, format, args...) }

func AuthFailed(format string, args ...any) error { return newf(ErrAuthFailed, format, args...) }

func Unavailable(format string, args ...any) error { return newf(ErrUnavailable, format, args...) }

// Slug returns the stable machine readable name of err's kind, or
// "internal_error" when err does not wrap a known kind.
func Slug(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicate):
		return "duplicate_resource"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrAuthFailed):
		return "authentication_failed"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	}
	return "internal_error"
}
