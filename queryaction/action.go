// Package queryaction executes query statements, validates the merged result against
// expected values and exports columns into variables, retrying on validation failures.
package queryaction

import (
	"context"
	"time"

	"github.com/shibukawa/sqlverify/statement"
)

const (
	DefaultMaxRetries = 0
	DefaultRetryPause = 1000 * time.Millisecond
)

// QueryExecutor runs a single statement and returns its rows.
type QueryExecutor interface {
	Query(ctx context.Context, statement string) ([]map[string]any, error)
}

// ContentResolver replaces variables and function calls inside a statement.
type ContentResolver interface {
	ReplaceDynamicContent(text string) (string, error)
}

// ValueResolver resolves expected value tokens.
type ValueResolver interface {
	IsVariable(token string) bool
	GetVariable(token string) (string, error)
	IsFunction(token string) bool
	EvaluateFunction(token string) (string, error)
}

// VariableStore receives exported columns.
type VariableStore interface {
	SetVariable(name, value string)
	SetVariables(values map[string]string)
}

// VariableContext is everything an action needs from the caller's variables.
type VariableContext interface {
	ContentResolver
	ValueResolver
	VariableStore
}

// Action configures one validated query. A non-empty Statements list takes priority
// over Resource.
type Action struct {
	Name       string
	Statements []string
	Resource   statement.Resource

	// Expected maps column names to literals, ${variable} references or function calls.
	Expected map[string]string
	// Extract maps column names to the variables receiving their values.
	Extract map[string]string

	MaxRetries int
	RetryPause time.Duration

	// LegacyExport additionally writes every merged column as ${COLUMN}.
	LegacyExport bool
}

// NewAction returns an action with the default retry settings and legacy export enabled.
func NewAction(name string) *Action {
	return &Action{
		Name:         name,
		Expected:     make(map[string]string),
		Extract:      make(map[string]string),
		MaxRetries:   DefaultMaxRetries,
		RetryPause:   DefaultRetryPause,
		LegacyExport: true,
	}
}

// Source returns the statement source of the action.
func (a *Action) Source() *statement.Source {
	return &statement.Source{
		Statements: a.Statements,
		Resource:   a.Resource,
	}
}

// Report describes the outcome of Engine.Execute.
type Report struct {
	// Retries is the number of retries performed after the first attempt.
	Retries   int
	Succeeded bool
	// Result is the last merged result, stringified. Nil when no attempt got that far.
	Result map[string]string
}
