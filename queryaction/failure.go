package queryaction

import (
	"errors"
	"fmt"
	"maps"

	"github.com/shibukawa/sqlverify/dbquery"
	"github.com/shibukawa/sqlverify/functions"
	"github.com/shibukawa/sqlverify/statement"
	"github.com/shibukawa/sqlverify/variable"
)

// Kind classifies a failure of an action.
type Kind int

const (
	// KindUnknown represents failures that could not be classified.
	KindUnknown Kind = iota
	// KindConfiguration represents broken statements, resources or retry settings.
	KindConfiguration
	// KindContentResolution represents unresolvable variables or function calls.
	KindContentResolution
	// KindDataAccess represents errors reported by the query executor.
	KindDataAccess
	// KindValidation represents empty results, missing columns and value mismatches.
	KindValidation
	// KindExport represents extraction of a column that is not in the result.
	KindExport
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindContentResolution:
		return "content resolution"
	case KindDataAccess:
		return "data access"
	case KindValidation:
		return "validation"
	case KindExport:
		return "export"
	default:
		return "unknown"
	}
}

// Class tells whether a failure may be retried.
type Class int

const (
	Fatal Class = iota
	Retryable
)

func (c Class) String() string {
	if c == Retryable {
		return "retryable"
	}

	return "fatal"
}

// Class returns the retry class of the kind. Only validation failures are retryable.
func (k Kind) Class() Class {
	if k == KindValidation {
		return Retryable
	}

	return Fatal
}

// Failure is an error wrapper that retains the failure classification and optional context.
type Failure struct {
	kind    Kind
	err     error
	context map[string]string
}

func (f *Failure) Error() string {
	if f == nil || f.err == nil {
		return ErrUnknownFailure.Error()
	}

	return f.err.Error()
}

func (f *Failure) Unwrap() error {
	if f == nil {
		return nil
	}

	return f.err
}

// Kind returns the failure classification.
func (f *Failure) Kind() Kind {
	if f == nil {
		return KindUnknown
	}

	return f.kind
}

// Class returns Fatal or Retryable.
func (f *Failure) Class() Class {
	return f.Kind().Class()
}

// Context returns a copy of the contextual metadata attached to the failure.
func (f *Failure) Context() map[string]string {
	if f == nil || len(f.context) == 0 {
		return nil
	}

	return maps.Clone(f.context)
}

// NewFailure creates a failure of the given kind.
func NewFailure(kind Kind, err error) error {
	return newFailure(kind, err, nil)
}

// AsFailure extracts a Failure from the error chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}

	return nil, false
}

// ClassifyFailure returns the Kind of any error, falling back to the known sentinels.
func ClassifyFailure(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	if f, ok := AsFailure(err); ok {
		return f.Kind()
	}

	var notFound *ColumnNotFoundError
	if errors.As(err, &notFound) && notFound.Phase == PhaseExport {
		return KindExport
	}

	switch {
	case errors.Is(err, statement.ErrMalformedStatement),
		errors.Is(err, statement.ErrResourceAccess),
		errors.Is(err, statement.ErrNoStatements),
		errors.Is(err, ErrInvalidRetrySettings),
		errors.Is(err, ErrMissingAction),
		errors.Is(err, ErrDuplicateColumn):
		return KindConfiguration
	case errors.Is(err, variable.ErrUnknownVariable),
		errors.Is(err, variable.ErrInvalidReference),
		errors.Is(err, functions.ErrUnknownFunction),
		errors.Is(err, functions.ErrUnknownLibrary),
		errors.Is(err, functions.ErrInvalidFunctionCall),
		errors.Is(err, functions.ErrInvalidFunctionUsage),
		errors.Is(err, functions.ErrIndexOutOfRange),
		errors.Is(err, functions.ErrExpressionEvaluation):
		return KindContentResolution
	case errors.Is(err, dbquery.ErrQueryExecution),
		errors.Is(err, dbquery.ErrDatabaseConnection):
		return KindDataAccess
	case errors.Is(err, ErrEmptyResult),
		errors.Is(err, ErrColumnNotFound),
		errors.Is(err, ErrValidationMismatch):
		return KindValidation
	}

	return KindUnknown
}

func newFailure(kind Kind, err error, ctx map[string]string) *Failure {
	if err == nil {
		err = ErrUnknownFailure
	}

	return &Failure{kind: kind, err: err, context: copyContext(ctx)}
}

// wrapFailure keeps err verbatim when message is empty so callers can still match
// the typed error with errors.As.
func wrapFailure(kind Kind, err error, ctx map[string]string, format string, args ...any) *Failure {
	if format == "" {
		return newFailure(kind, err, ctx)
	}

	message := fmt.Sprintf(format, args...)

	if err == nil {
		return newFailure(kind, fmt.Errorf("%w: %s", ErrUnknownFailure, message), ctx)
	}

	return newFailure(kind, fmt.Errorf("%s: %w", message, err), ctx)
}

func copyContext(ctx map[string]string) map[string]string {
	if len(ctx) == 0 {
		return nil
	}

	return maps.Clone(ctx)
}
