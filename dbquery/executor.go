// Package dbquery runs check statements against a database/sql connection.
package dbquery

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Executor executes statements and returns their rows as column maps.
type Executor struct {
	db      *sql.DB
	timeout time.Duration
}

// NewExecutor creates an executor. A zero timeout means no per-statement deadline.
func NewExecutor(db *sql.DB, timeout time.Duration) *Executor {
	return &Executor{
		db:      db,
		timeout: timeout,
	}
}

// Query runs stmt and returns every row keyed by the column name the driver reports.
func (e *Executor) Query(ctx context.Context, stmt string) ([]map[string]any, error) {
	queryCtx := ctx

	if e.timeout > 0 {
		var cancel context.CancelFunc

		queryCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	rows, err := e.db.QueryContext(queryCtx, stmt)
	if err != nil {
		return nil, newError(stmt, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, newError(stmt, fmt.Errorf("failed to get column names: %w", err))
	}

	values := make([]any, len(columns))
	scanArgs := make([]any, len(columns))

	for i := range values {
		scanArgs[i] = &values[i]
	}

	result := make([]map[string]any, 0)

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, newError(stmt, fmt.Errorf("failed to scan row: %w", err))
		}

		row := make(map[string]any, len(columns))
		for i, column := range columns {
			row[column] = convertSQLValue(values[i])
		}

		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, newError(stmt, fmt.Errorf("error during row iteration: %w", err))
	}

	return result, nil
}

func newError(stmt string, err error) *Error {
	return &Error{
		Statement: stmt,
		Fault:     ClassifyError(err),
		Err:       err,
	}
}

// convertSQLValue turns driver byte slices into strings.
func convertSQLValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}

	return v
}
