// Package apperr defines the error taxonomy shared across the service.
package apperr

import "fmt"

// ValidationError reports a missing or malformed submission field. It is
// surfaced to callers as a 4xx rejection naming the field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return "Missing required field: " + e.Field
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StoreError wraps a backing-store failure: connectivity, a batch fetch
// error, or an insert rejection. A fetch StoreError aborts the whole load.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ParseError reports a malformed bulk-import row. Parsing is all-or-nothing:
// a ParseError aborts the import before any insert is attempted.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse: line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
