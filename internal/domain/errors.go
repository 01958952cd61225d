package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateName  = errors.New("a movie info with the same name already exists")
	ErrEditConflict   = errors.New("edit conflict")
)

// FieldError describes a single failed field check.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError is returned when a record fails one or more field
// checks. A record carrying a ValidationError is never persisted.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fmt.Sprintf("%s %s", fe.Field, fe.Message)
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// HasField reports whether the error names the given field.
func (e *ValidationError) HasField(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}

	return false
}
