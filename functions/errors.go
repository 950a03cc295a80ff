package functions

import "errors"

// Error definitions for function evaluation
var (
	ErrUnknownFunction      = errors.New("unknown function")
	ErrUnknownLibrary       = errors.New("unknown function library")
	ErrInvalidFunctionCall  = errors.New("invalid function call syntax")
	ErrInvalidFunctionUsage = errors.New("invalid function usage")
	ErrIndexOutOfRange      = errors.New("index out of range")
	ErrExpressionEvaluation = errors.New("expression evaluation failed")
)
