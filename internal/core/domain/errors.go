package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("not authorized")
	ErrUnauthenticated   = errors.New("not authenticated")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("already exists")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrUnavailable       = errors.New("unavailable")
)

// A ValidationError carries a client facing message and matches [ErrValidation].
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

func (e ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func Invalid(format string, args ...any) error {
	return ValidationError{Message: fmt.Sprintf(format, args...)}
}

// A ConflictError names the unique field a write collided on and matches
// [ErrConflict].
type ConflictError struct {
	Field string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

func (e ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// IsConflictOn reports whether err is a conflict on field.
func IsConflictOn(err error, field string) bool {
	var ce ConflictError
	return errors.As(err, &ce) && ce.Field == field
}
