package draw

import "errors"

// Input validation errors, returned by NewExecutor.
var (
	ErrEmptyEntries   = errors.New("entries cannot be empty")
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// State errors indicate a caller bug and are never worth retrying.
var (
	ErrAlreadyExecuted = errors.New("draw has already been executed for this instance")
	ErrNotExecuted     = errors.New("draw has not been executed yet")
)

// Exhaustion errors depend on the configuration and the entry count.
var (
	ErrEntriesExhausted = errors.New("no more entries available to select")
	ErrNoWinners        = errors.New("configuration requests no winners")
)

// ErrMalformedDocument is returned when an audit document cannot be parsed
// or lacks a required field.
var ErrMalformedDocument = errors.New("malformed audit document")
