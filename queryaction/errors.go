package queryaction

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyResult          = errors.New("empty result set")
	ErrColumnNotFound       = errors.New("column not found in result set")
	ErrValidationMismatch   = errors.New("validation failed")
	ErrInvalidRetrySettings = errors.New("invalid retry settings")
	ErrMissingAction        = errors.New("missing action")
	ErrUnknownFailure       = errors.New("unknown failure")
	ErrDuplicateColumn      = errors.New("duplicate column")
)

// Phase tells in which step a column lookup failed.
type Phase string

const (
	PhaseValidation Phase = "validation"
	PhaseExport     Phase = "export"
)

// EmptyResultError reports a statement that returned no rows.
type EmptyResultError struct {
	Statement string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("%s for statement: %s", ErrEmptyResult, e.Statement)
}

func (e *EmptyResultError) Unwrap() error {
	return ErrEmptyResult
}

// ColumnNotFoundError reports an expected or extracted column missing in the merged result.
type ColumnNotFoundError struct {
	Column string
	Phase  Phase
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", ErrColumnNotFound, e.Column, e.Phase)
}

func (e *ColumnNotFoundError) Unwrap() error {
	return ErrColumnNotFound
}

// ValidationMismatchError reports a column whose value differs from the expectation.
// Absent values are rendered as NULL.
type ValidationMismatchError struct {
	Column   string
	Actual   string
	Expected string
}

func (e *ValidationMismatchError) Error() string {
	return fmt.Sprintf("%s for column '%s': found value '%s', expected value '%s'",
		ErrValidationMismatch, e.Column, e.Actual, e.Expected)
}

func (e *ValidationMismatchError) Unwrap() error {
	return ErrValidationMismatch
}
