// Package apperr defines the gateway error taxonomy.
//
// Every error crossing a package boundary is classified by Kind so callers can
// decide whether the condition is theirs to fix (Validation), fatal for the
// operation (Configuration), transient and self-healing (InconsistentTransition),
// or retryable at the caller's discretion (External).
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable error class.
type Kind string

const (
	// KindValidation marks caller-supplied input outside its legal domain.
	// Surfaced to the caller, never retried automatically.
	KindValidation Kind = "VALIDATION"

	// KindConfiguration marks a missing or unusable configuration value
	// (e.g. the master secret). Fatal for the operation; retrying cannot fix it.
	KindConfiguration Kind = "CONFIGURATION"

	// KindInconsistentTransition marks an event or read implying an illegal
	// state edge. Logged and dropped; the next reconciling read self-corrects.
	KindInconsistentTransition Kind = "INCONSISTENT_TRANSITION"

	// KindExternal marks a failed or timed-out ledger read/write. Recoverable;
	// the caller decides whether to retry.
	KindExternal Kind = "EXTERNAL"
)

// Error carries a Kind alongside a wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a kinded error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an existing error. A nil err yields nil.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Validationf is shorthand for New(KindValidation, ...).
func Validationf(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// Configurationf is shorthand for New(KindConfiguration, ...).
func Configurationf(format string, args ...any) *Error {
	return New(KindConfiguration, format, args...)
}

// Externalf wraps err as KindExternal.
func Externalf(err error, format string, args ...any) *Error {
	return Wrap(KindExternal, err, format, args...)
}

// KindOf reports the Kind of err, or "" if err carries none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// IsKind reports whether err (or anything it wraps) carries kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
