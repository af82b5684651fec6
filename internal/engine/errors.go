package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/sysplan/internal/ir"
	"github.com/roach88/sysplan/internal/store"
)

// RuntimeError represents an error detected while running a tick.
//
// RuntimeError includes structured fields for diagnostics; the zero value
// of a field means it does not apply.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Tick is the tick during which the error occurred.
	Tick int64

	Routine   ir.RoutineID
	Predicate ir.PredicateID
	Entity    store.EntityID

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeMissingRoutine indicates a plan routine has no registered implementation.
	ErrCodeMissingRoutine RuntimeErrorCode = "MISSING_ROUTINE"

	// ErrCodeMissingPredicate indicates a plan predicate has no registered implementation.
	ErrCodeMissingPredicate RuntimeErrorCode = "MISSING_PREDICATE"

	// ErrCodeRoutineFailed indicates a routine returned an error.
	ErrCodeRoutineFailed RuntimeErrorCode = "ROUTINE_FAILED"

	// ErrCodePredicateFailed indicates a predicate returned an error.
	ErrCodePredicateFailed RuntimeErrorCode = "PREDICATE_FAILED"

	// ErrCodeQueryFailed indicates a data source could not be compiled or evaluated.
	ErrCodeQueryFailed RuntimeErrorCode = "QUERY_FAILED"

	// ErrCodeQuotaExceeded indicates the tick exceeded its invocation quota.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Routine != "" {
		msg += fmt.Sprintf(" (routine=%s)", e.Routine)
	}
	if e.Predicate != "" {
		msg += fmt.Sprintf(" (predicate=%s)", e.Predicate)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// CodeOf extracts the RuntimeErrorCode from err.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) (RuntimeErrorCode, bool) {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code, true
	}
	return "", false
}

// IsMissingError returns true if err reports an unregistered routine or predicate.
func IsMissingError(err error) bool {
	code, ok := CodeOf(err)
	return ok && (code == ErrCodeMissingRoutine || code == ErrCodeMissingPredicate)
}

// IsQuotaError returns true if the error is a quota exceeded error.
// Matches both RuntimeError with ErrCodeQuotaExceeded and QuotaExceededError.
func IsQuotaError(err error) bool {
	if code, ok := CodeOf(err); ok && code == ErrCodeQuotaExceeded {
		return true
	}
	var qe *QuotaExceededError
	return errors.As(err, &qe)
}
