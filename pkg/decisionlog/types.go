// Package decisionlog records policy query evaluations for audit. The
// log is advisory: failures to record never affect evaluation results.
package decisionlog

import (
	"context"
	"fmt"
	"time"
)

// Record is one logged query evaluation.
type Record struct {
	// ID is a unique record identifier (UUID).
	ID string

	// Time is when the evaluation happened.
	Time time.Time

	// Query is the evaluated query text.
	Query string

	// Defined reports whether the query produced a value.
	Defined bool

	// Value is the JSON-encoded result value, empty when undefined.
	Value string

	// Error is the evaluation error message, empty on success.
	Error string

	// Duration is how long the evaluation took.
	Duration time.Duration

	// PolicyVersion is the source store version at evaluation time.
	PolicyVersion string
}

// Filter selects records for Query.
type Filter struct {
	// Since selects records at or after this time (zero = unbounded).
	Since time.Time

	// Until selects records before this time (zero = unbounded).
	Until time.Time

	// Limit caps the number of returned records (0 = no cap).
	Limit int
}

// Storage persists decision records. Implementations must be safe for
// concurrent use.
type Storage interface {
	// Store persists one record.
	Store(ctx context.Context, record *Record) error

	// Query returns records matching the filter, newest first.
	Query(ctx context.Context, filter *Filter) ([]*Record, error)

	// Count returns the total number of records.
	Count(ctx context.Context) (int64, error)

	// DeleteBefore removes records older than cutoff, returning how
	// many were deleted.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases storage resources.
	Close() error
}

// StorageError represents a decision log storage failure.
type StorageError struct {
	// Backend is the storage backend name (e.g. "sqlite", "memory")
	Backend string

	// Operation is the operation that failed
	Operation string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("decision log storage error (%s, %s): %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *StorageError) Unwrap() error {
	return e.Cause
}
