package progress

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the ledger. Callers test with errors.Is.
var (
	// ErrValidation indicates a malformed event payload. No state changed.
	ErrValidation = errors.New("validation error")

	// ErrUnknownActivity indicates the event references an activity that
	// is not in the catalog. No state changed.
	ErrUnknownActivity = errors.New("unknown activity")

	// ErrInvalidEventKind indicates an event variant the ledger does not handle.
	ErrInvalidEventKind = errors.New("invalid event kind")

	// ErrInvariantViolation indicates the record failed a post-condition
	// check. The record must not be persisted.
	ErrInvariantViolation = errors.New("invariant violation")
)

// ValidationError names the offending field of a rejected event.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InvariantError lists every invariant a record violates.
type InvariantError struct {
	Problems []string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation: %v", e.Problems)
}

func (e *InvariantError) Unwrap() error { return ErrInvariantViolation }
