package todo

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("task not found")
	// ErrNoMatch is returned by bulk deletes that affect zero tasks.
	ErrNoMatch = errors.New("no matching tasks")
)

// ValidationError reports an empty required field. No state is changed.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s must not be empty", e.Field)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
