package engine

import (
	"errors"
	"fmt"
)

// Error wraps an engine failure with the engine and operation that failed.
type Error struct {
	Engine  string // e.g. "ocrmac"
	Op      string // e.g. "Recognize"
	Err     error
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s failed: %s: %v", e.Engine, e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Engine, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WrapError wraps err as an *Error unless it already is one.
func WrapError(engine, op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var engErr *Error
	if errors.As(err, &engErr) {
		return err
	}
	return &Error{Engine: engine, Op: op, Err: err, Details: details}
}
