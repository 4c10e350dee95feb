// Package pshaerr defines the typed error kinds surfaced from the hazard
// core. It is kept as its own leaf package, free of any dependency on the
// rest of the model, so both the core package and pshautil's configuration
// builder can return the same typed errors without creating an import
// cycle.
//
// Errors wrap their cause via Unwrap, the usual fmt.Errorf("...: %w", err)
// chaining idiom, but the outer error also carries a machine-checkable
// Kind so callers can distinguish failure kinds programmatically rather
// than by matching message text.
package pshaerr

import "fmt"

// Kind enumerates the error kinds a calculation can surface.
type Kind int

const (
	// ConfigInvalid indicates a missing required field, an out-of-range
	// numeric setting, or an unrecognized enum value in a CalcConfig.
	ConfigInvalid Kind = iota
	// BuilderExhausted indicates Build was called twice on a one-shot
	// builder.
	BuilderExhausted
	// IndexOutOfRange indicates a dataset index helper was called with a
	// value outside bounds that are not permitted to clamp.
	IndexOutOfRange
	// PipelineCancelled indicates a concurrent stage was cancelled because
	// of an upstream failure.
	PipelineCancelled
	// ComputationFailed indicates an underlying GMM or geometry operation
	// failed; the cause is available via errors.Unwrap.
	ComputationFailed
)

func (k Kind) String() string {
	switch k {
	case ConfigInvalid:
		return "ConfigInvalid"
	case BuilderExhausted:
		return "BuilderExhausted"
	case IndexOutOfRange:
		return "IndexOutOfRange"
	case PipelineCancelled:
		return "PipelineCancelled"
	case ComputationFailed:
		return "ComputationFailed"
	default:
		return "Unknown"
	}
}

// Error is the error type surfaced from the hazard core.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("pshacalc: %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("pshacalc: %s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause, if any, for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// New creates an *Error of the given kind with no wrapped cause.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error of the given kind wrapping cause.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err, or any error in its chain of causes (followed
// through *Error.Cause and Unwrap), is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind == kind {
				return true
			}
			err = e.Cause
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
