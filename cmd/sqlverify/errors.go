package main

import "errors"

// Sentinel errors for command operations
var (
	ErrEmptyConnectionString = errors.New("empty connection string")
	ErrEmptyDatabaseType     = errors.New("empty database type")
)
