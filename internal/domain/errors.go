package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates the referenced quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAttemptNotFound indicates the referenced attempt does not exist.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrDuplicateAttempt is returned when a user resubmits a quiz they
	// already have a finalized attempt for.
	ErrDuplicateAttempt = errors.New("attempt already submitted for this quiz")
	// ErrQuizLocked is returned when an edit would touch a quiz that
	// already has attempts recorded against its answer key.
	ErrQuizLocked = errors.New("quiz has recorded attempts and cannot be edited")
	// ErrForbidden indicates the caller's role does not permit the operation.
	ErrForbidden = errors.New("operation not permitted for this role")
	// ErrStorage wraps persistence failures surfaced to the request boundary.
	ErrStorage = errors.New("storage failure")
)

// ValidationError reports a user-correctable problem with a submitted
// quiz definition or answer payload, with field-level detail.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validation builds a ValidationError for the given field.
func Validation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StorageError wraps err so callers can match it with errors.Is(err, ErrStorage).
func StorageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}
