package dbquery

import (
	"errors"
	"fmt"
)

var (
	ErrDatabaseConnection = errors.New("database connection failed")
	ErrQueryExecution     = errors.New("query execution failed")
	ErrUnsupportedDriver  = errors.New("unsupported database driver")
)

// Error is returned by Executor.Query for every failed statement.
type Error struct {
	Statement string
	Fault     FaultType
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s) in statement '%s': %v", ErrQueryExecution, e.Fault, e.Statement, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrQueryExecution, e.Err}
}
