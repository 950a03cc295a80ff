package dbquery

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// FaultType describes why a statement failed.
type FaultType string

const (
	FaultSyntax          FaultType = "syntax"
	FaultUndefinedTable  FaultType = "undefined table"
	FaultUndefinedColumn FaultType = "undefined column"
	FaultConnection      FaultType = "connection"
	FaultConstraint      FaultType = "constraint"
	FaultTimeout         FaultType = "timeout"
	FaultUnknown         FaultType = "unknown"
)

// ClassifyError maps a driver error to a FaultType.
func ClassifyError(err error) FaultType {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FaultTimeout
	}

	if errors.Is(err, driver.ErrBadConn) {
		return FaultConnection
	}

	// PostgreSQL errors (via pgx)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPostgresError(pgErr)
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return FaultConnection
	}

	// MySQL errors
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return classifyMySQLError(myErr)
	}

	if errors.Is(err, mysql.ErrInvalidConn) {
		return FaultConnection
	}

	// SQLite errors
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return classifySQLiteError(sqliteErr)
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "database is closed") {
		return FaultConnection
	}

	return FaultUnknown
}

// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
func classifyPostgresError(err *pgconn.PgError) FaultType {
	switch {
	case err.Code == "42601": // syntax_error
		return FaultSyntax
	case err.Code == "42P01": // undefined_table
		return FaultUndefinedTable
	case err.Code == "42703": // undefined_column
		return FaultUndefinedColumn
	case strings.HasPrefix(err.Code, "08"), strings.HasPrefix(err.Code, "57P"):
		return FaultConnection
	case strings.HasPrefix(err.Code, "23"):
		return FaultConstraint
	case err.Code == "57014": // query_canceled
		return FaultTimeout
	default:
		return FaultUnknown
	}
}

// See: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
func classifyMySQLError(err *mysql.MySQLError) FaultType {
	switch err.Number {
	case 1064: // ER_PARSE_ERROR
		return FaultSyntax
	case 1146: // ER_NO_SUCH_TABLE
		return FaultUndefinedTable
	case 1054: // ER_BAD_FIELD_ERROR
		return FaultUndefinedColumn
	case 1040, 1045, 1049, 1053: // too many connections, access denied, unknown db, shutdown
		return FaultConnection
	case 1062, 1451, 1452, 1048, 3819:
		return FaultConstraint
	case 3024: // ER_QUERY_TIMEOUT
		return FaultTimeout
	default:
		return FaultUnknown
	}
}

// See: https://www.sqlite.org/rescode.html
func classifySQLiteError(err sqlite3.Error) FaultType {
	switch err.Code {
	case sqlite3.ErrConstraint:
		return FaultConstraint
	case sqlite3.ErrCantOpen, sqlite3.ErrNotADB, sqlite3.ErrAuth:
		return FaultConnection
	case sqlite3.ErrInterrupt:
		return FaultTimeout
	}

	// Generic SQLITE_ERROR carries the reason only in its message.
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "no such table"):
		return FaultUndefinedTable
	case strings.Contains(msg, "no such column"):
		return FaultUndefinedColumn
	case strings.Contains(msg, "syntax error"), strings.Contains(msg, "incomplete input"):
		return FaultSyntax
	default:
		return FaultUnknown
	}
}
