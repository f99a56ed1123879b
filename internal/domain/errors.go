package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates the quiz id does not resolve to a record.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSessionNotFound is returned when a wizard or quiz run is not active.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionResolved is returned for submissions after a run finished.
	ErrSessionResolved = errors.New("session already resolved")
	// ErrRoleNotFound indicates the selected role is not assignable.
	ErrRoleNotFound = errors.New("role not found")
	// ErrMessageNotLinked indicates a message id has no quiz attached.
	ErrMessageNotLinked = errors.New("message not linked to a quiz")
)

// ValidationError marks malformed user input. The message is safe to show
// back to the user; the triggering prompt is re-issued without advancing.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a user-input validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
