// Package errs implements the kernel's error taxonomy (spec.md §7): a small
// set of Kinds, not Go types, so callers can branch on errors.As(&*Error)
// and switch on Kind rather than maintaining a type per failure site.
package errs

import "fmt"

// Kind classifies why an operation failed, which in turn decides the policy
// a caller applies: fail fast, retry, checkpoint, or swallow.
type Kind string

const (
	// KindUserInput covers duplicate job names, unknown dependencies, cyclic
	// plans: fail fast on startPlan, nothing persisted.
	KindUserInput Kind = "user_input"
	// KindEnvironment covers a missing multiplexer/VCS binary, or a window
	// placement requested outside a multiplexer session.
	KindEnvironment Kind = "environment"
	// KindTransient covers a nonzero git/multiplexer exit or an SSE
	// disconnect: retry with bounded backoff, or surface + checkpoint.
	KindTransient Kind = "transient"
	// KindPolicy covers touch-set violations, merge conflicts, test
	// failures: job moves to the appropriate status and the orchestrator
	// raises a checkpoint.
	KindPolicy Kind = "policy"
	// KindDataIntegrity covers a corrupt plan.json or unknown schema
	// version: refuse to load, never overwrite.
	KindDataIntegrity Kind = "data_integrity"
	// KindInternal covers an invalid state-transition request: logged as a
	// warning, the write still succeeds.
	KindInternal Kind = "internal"
)

// Error is the structured error every non-fire-and-forget failure path
// returns, naming the offending field/file where applicable.
type Error struct {
	Kind    Kind
	Op      string
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)%s", e.Op, e.Message, e.Field, e.errSuffix())
	}
	return fmt.Sprintf("%s: %s%s", e.Op, e.Message, e.errSuffix())
}

func (e *Error) errSuffix() string {
	if e.Err == nil {
		return ""
	}
	return ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a taxonomy error.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap constructs a taxonomy error around an underlying cause.
func Wrap(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// WithField attaches the offending field/file name (data-integrity errors).
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// Is reports whether err (or any error it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if te, ok := err.(*Error); ok {
			if te.Kind == kind {
				return true
			}
			err = te.Err
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
