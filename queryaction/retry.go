package queryaction

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type cycleState int

const (
	stateExecuting cycleState = iota
	stateReconciling
	stateValidating
	stateSucceeded
	stateRetrying
	stateFailed
)

func (s cycleState) String() string {
	switch s {
	case stateExecuting:
		return "executing"
	case stateReconciling:
		return "reconciling"
	case stateValidating:
		return "validating"
	case stateSucceeded:
		return "succeeded"
	case stateRetrying:
		return "retrying"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Pauser suspends the caller between attempts.
type Pauser interface {
	Pause(ctx context.Context, d time.Duration) error
}

// TimerPauser waits on a timer and returns early with ctx.Err() when ctx is done.
type TimerPauser struct{}

func (TimerPauser) Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Engine runs actions against a QueryExecutor.
type Engine struct {
	executor QueryExecutor
	logger   *zap.Logger
	pauser   Pauser
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithPauser replaces the TimerPauser.
func WithPauser(p Pauser) Option {
	return func(e *Engine) {
		if p != nil {
			e.pauser = p
		}
	}
}

// NewEngine creates an engine executing statements with executor.
func NewEngine(executor QueryExecutor, opts ...Option) *Engine {
	e := &Engine{
		executor: executor,
		logger:   zap.NewNop(),
		pauser:   TimerPauser{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Execute runs the action until validation succeeds or the retry budget is spent,
// then exports the configured columns into vars. Validation failures are retried;
// every other failure ends the execution immediately. The returned error is a
// *Failure; the Report is returned in both cases.
func (e *Engine) Execute(ctx context.Context, action *Action, vars VariableContext) (*Report, error) {
	report := &Report{}

	if action == nil {
		return report, newFailure(KindConfiguration, ErrMissingAction, nil)
	}

	if action.MaxRetries < 0 || action.RetryPause < 0 {
		return report, wrapFailure(KindConfiguration, ErrInvalidRetrySettings, nil,
			"action %s: max retries %d, retry pause %s", action.Name, action.MaxRetries, action.RetryPause)
	}

	statements, err := action.Source().Load()
	if err != nil {
		return report, newFailure(KindConfiguration, err, map[string]string{"action": action.Name})
	}

	if err := checkColumnKeys("expected", action.Expected); err != nil {
		return report, newFailure(KindConfiguration, err, map[string]string{"action": action.Name})
	}

	if err := checkColumnKeys("extract", action.Extract); err != nil {
		return report, newFailure(KindConfiguration, err, map[string]string{"action": action.Name})
	}

	logger := e.logger.With(zap.String("action", action.Name))

	for {
		merged, failure := e.attempt(ctx, logger, action, statements, vars, report.Retries+1)
		if merged != nil {
			report.Result = stringifyAll(merged)
		}

		if failure == nil {
			logger.Debug("state", zap.Stringer("state", stateSucceeded), zap.Int("retries", report.Retries))

			if failure := e.export(action, merged, vars); failure != nil {
				return report, failure
			}

			report.Succeeded = true

			return report, nil
		}

		if failure.Class() == Fatal || report.Retries >= action.MaxRetries {
			logger.Debug("state", zap.Stringer("state", stateFailed),
				zap.Stringer("kind", failure.Kind()), zap.Int("retries", report.Retries))

			return report, failure
		}

		report.Retries++

		logger.Info("attempt failed, retrying",
			zap.Int("retry", report.Retries),
			zap.Int("max_retries", action.MaxRetries),
			zap.Duration("pause", action.RetryPause),
			zap.Error(failure))
		logger.Debug("state", zap.Stringer("state", stateRetrying))

		if err := e.pauser.Pause(ctx, action.RetryPause); err != nil {
			logger.Warn("retry pause interrupted, continuing with next attempt", zap.Error(err))
		}
	}
}

// attempt runs one execute, reconcile and validate cycle on a fresh merged result.
func (e *Engine) attempt(ctx context.Context, logger *zap.Logger, action *Action, statements []string, vars VariableContext, attempt int) (map[string]any, *Failure) {
	logger.Debug("state", zap.Stringer("state", stateExecuting), zap.Int("attempt", attempt))

	results := make([][]map[string]any, len(statements))
	resolved := make([]string, len(statements))

	for i, raw := range statements {
		stmt, err := vars.ReplaceDynamicContent(raw)
		if err != nil {
			return nil, wrapFailure(KindContentResolution, err, map[string]string{"statement": raw},
				"failed to resolve statement '%s'", raw)
		}

		logger.Debug("executing statement", zap.String("statement", stmt))

		rows, err := e.executor.Query(ctx, stmt)
		if err != nil {
			return nil, wrapFailure(KindDataAccess, err, map[string]string{"statement": stmt},
				"failed to execute statement '%s'", stmt)
		}

		resolved[i] = stmt
		results[i] = rows
	}

	logger.Debug("state", zap.Stringer("state", stateReconciling), zap.Int("attempt", attempt))

	rec := newReconciler(logger)
	for i, rows := range results {
		if err := rec.add(resolved[i], rows); err != nil {
			return nil, newFailure(KindValidation, err, map[string]string{"statement": resolved[i]})
		}
	}

	merged := rec.merged()

	logger.Debug("state", zap.Stringer("state", stateValidating), zap.Int("attempt", attempt))

	if failure := validate(action.Expected, merged, vars); failure != nil {
		return merged, failure
	}

	return merged, nil
}

func stringifyAll(merged map[string]any) map[string]string {
	if merged == nil {
		return nil
	}

	out := make(map[string]string, len(merged))
	for column, value := range merged {
		out[column] = stringify(value)
	}

	return out
}
