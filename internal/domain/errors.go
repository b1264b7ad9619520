package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery signals a malformed or empty search query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrUnknownAttribute signals a query attribute outside the configured universe.
	ErrUnknownAttribute = errors.New("unknown attribute")
	// ErrInvalidAttributeKind signals a mismatch between a spec's declared kind
	// and the runtime type of a value. This is a configuration defect, not user input.
	ErrInvalidAttributeKind = errors.New("invalid attribute kind")
	// ErrEmptyQuery signals a query with no scorable target attributes.
	ErrEmptyQuery = errors.New("query has no scorable targets")
	// ErrExtractionFailed signals a parameter extraction provider failure.
	ErrExtractionFailed = errors.New("parameter extraction failed")
)

// FieldError wraps a sentinel error with the offending field name.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: field %q", e.Err.Error(), e.Field)
}

func (e *FieldError) Unwrap() error { return e.Err }

// NewFieldError creates an error carrying the offending field name.
func NewFieldError(sentinel error, field string) error {
	return &FieldError{Field: field, Err: sentinel}
}
