package driverlib

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no element matches a selector, or when a
	// wait times out before the element becomes visible.
	ErrNotFound = errors.New("element not found")
	// ErrIndexOutOfRange is returned when a selector's index is not smaller
	// than the number of matching elements.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrUnsupportedSelector is returned for a By value outside the known set.
	ErrUnsupportedSelector = errors.New("unsupported selector")
	// ErrSessionClosed is returned by every operation after Teardown.
	ErrSessionClosed = errors.New("session closed")
)

// Error describes a failed Driver operation.
type Error struct {
	// Op is the operation that failed, e.g. "Click".
	Op string
	// Selector is the element the operation addressed, if any.
	Selector *Selector
	Err      error
}

func (e *Error) Error() string {
	if e.Selector != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Selector, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func opError(op string, sel *Selector, err error) error {
	return &Error{Op: op, Selector: sel, Err: err}
}
