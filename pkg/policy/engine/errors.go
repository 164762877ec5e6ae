package engine

import "fmt"

// ParseError represents a failure to parse or compile a policy.
type ParseError struct {
	// Policy is the name of the policy that failed to parse
	Policy string

	// Message describes the parse failure
	Message string

	// Cause is the underlying parser or compiler error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error in policy %q: %s: %v", e.Policy, e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error in policy %q: %s", e.Policy, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// EvalError represents a failure during query evaluation.
type EvalError struct {
	// Query is the query text that failed to evaluate
	Query string

	// Message describes the evaluation failure
	Message string

	// Cause is the underlying evaluation error
	Cause error
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("eval error for query %q: %s: %v", e.Query, e.Message, e.Cause)
	}
	return fmt.Sprintf("eval error for query %q: %s", e.Query, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *EvalError) Unwrap() error {
	return e.Cause
}

// JSONError represents invalid JSON passed as input or data.
type JSONError struct {
	// Message describes what was being decoded
	Message string

	// Cause is the underlying decoding error
	Cause error
}

// Error implements the error interface.
func (e *JSONError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("json error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("json error: %s", e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *JSONError) Unwrap() error {
	return e.Cause
}

// EngineError represents a generic engine failure that is neither a
// parse, eval, nor JSON error.
type EngineError struct {
	// Operation is the engine operation that failed
	Operation string

	// Message describes the failure
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("engine error during %s: %s: %v", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("engine error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *EngineError) Unwrap() error {
	return e.Cause
}
