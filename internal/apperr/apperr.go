// Package apperr classifies domain errors so the HTTP layer can pick a status code.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrInvalid      = errors.New("invalid request")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

func newf(kind error, format string, args ...any) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func Invalid(format string, args ...any) error      { return newf(ErrInvalid, format, args...) }
func NotFound(format string, args ...any) error     { return newf(ErrNotFound, format, args...) }
func Conflict(format string, args ...any) error     { return newf(ErrConflict, format, args...) }
func Forbidden(format string, args ...any) error    { return newf(ErrForbidden, format, args...) }
func Unauthorized(format string, args ...any) error { return newf(ErrUnauthorized, format, args...) }
