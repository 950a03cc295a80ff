package sqlverify

import "errors"

// Common errors used throughout the sqlverify package
var (
	// ErrConfigValidation is returned when configuration validation fails
	ErrConfigValidation = errors.New("configuration validation failed")
	// ErrEnvironmentNotFound indicates the requested database environment is not configured.
	ErrEnvironmentNotFound = errors.New("database environment not found")
	// ErrNoDatabasesConfigured indicates the configuration has no database section.
	ErrNoDatabasesConfigured = errors.New("no databases configured")

	// Runner errors

	// ErrNoDocumentsFound indicates no check documents matched the provided pattern.
	ErrNoDocumentsFound = errors.New("no check documents found matching pattern")
	// ErrChecksFailed is returned by the CLI when at least one check failed.
	ErrChecksFailed = errors.New("one or more checks failed")
)
