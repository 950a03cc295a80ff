package statement

import (
	"errors"
	"fmt"
)

// Error definitions for statement loading
var (
	ErrMalformedStatement = errors.New("malformed statement")
	ErrResourceAccess     = errors.New("statement resource could not be read")
	ErrNoStatements       = errors.New("neither statements nor a statement resource were given")
)

// MalformedStatementError reports a statement that failed the shape check.
type MalformedStatementError struct {
	Statement string
	// Keyword is the keyword that was missing or misplaced.
	Keyword string
}

func (e *MalformedStatementError) Error() string {
	return fmt.Sprintf("%s: missing keyword %s in statement: %s", ErrMalformedStatement, e.Keyword, e.Statement)
}

func (e *MalformedStatementError) Unwrap() error {
	return ErrMalformedStatement
}

// ResourceError reports a resource that could not be opened or streamed.
type ResourceError struct {
	Name string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrResourceAccess, e.Name, e.Err)
}

func (e *ResourceError) Unwrap() []error {
	return []error{ErrResourceAccess, e.Err}
}
