// Package xerr implements the error taxonomy of the runtime core: invariant
// violations (fatal unless caught at a test boundary), domain errors raised
// as Skip-level exceptions, I/O errors, memo-cache format mismatches, and
// the allocation-failure fatal path. Wraps carry a stack via pkg/errors so a
// crash report shows where the invariant first broke rather than where it
// was last observed.
package xerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvariantViolation reports an impossible-by-design condition detected at
// runtime, e.g. two touching revisions with equal values.
type InvariantViolation struct {
	Msg string
}

func (e *InvariantViolation) Error() string { return "invariant violation: " + e.Msg }

func NewInvariantViolation(format string, args ...any) error {
	return errors.WithStack(&InvariantViolation{Msg: fmt.Sprintf(format, args...)})
}

// DomainError is a Skip-level exception subtype: divide-by-zero,
// out-of-bounds, invalid-index, invalid-size.
type DomainError struct {
	Kind string // "DivideByZero", "OutOfBounds", "InvalidIndex", "InvalidSize"
	Msg  string
}

func (e *DomainError) Error() string { return e.Kind + ": " + e.Msg }

func NewDomainError(kind, format string, args ...any) error {
	return errors.WithStack(&DomainError{Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

// IOError wraps an OS-level error with a runtime_error-style message.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *IOError) Unwrap() error { return e.Err }

func NewIOError(op string, err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&IOError{Op: op, Err: err})
}

// FormatMismatchError means the memo-cache build_hash did not match; the
// caller proceeds with an empty cache rather than treating this as fatal.
type FormatMismatchError struct {
	Want, Got uint64
}

func (e *FormatMismatchError) Error() string {
	return fmt.Sprintf("memo-cache format mismatch: want build_hash=%x got=%x", e.Want, e.Got)
}

// AllocFailure is fatal: the process aborts with this message.
type AllocFailure struct {
	Msg string
}

func (e *AllocFailure) Error() string { return "out of memory: " + e.Msg }

// SkipExitException models an explicit program exit; the top-level harness
// catches this and returns Status as the process exit code.
type SkipExitException struct {
	Status int
}

func (e *SkipExitException) Error() string { return fmt.Sprintf("exit(%d)", e.Status) }

// RefreshFailed is internal and never escapes to user code: it causes the
// Refresher to fall back to re-running the thunk.
type RefreshFailed struct {
	Reason string
}

func (e *RefreshFailed) Error() string { return "refresh failed: " + e.Reason }
