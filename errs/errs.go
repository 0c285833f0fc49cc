// Package errs defines the fatal and non-fatal error kinds shared across
// the engine (grid, field, linalg, poisson, pseudo, xc, exchange,
// hamiltonian, scf, realtime, ion).
//
// Shape-mismatch, not-positive-definite, io-failure and bad-configuration
// are fatal; not-converged carries the last state and lets the caller
// decide whether to abort.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies one of the abstract error kinds of the error design.
type Kind int

const (
	ShapeMismatch Kind = iota
	NotPositiveDefinite
	NotConverged
	IOFailure
	BadConfiguration
)

func (k Kind) String() string {
	switch k {
	case ShapeMismatch:
		return "shape-mismatch"
	case NotPositiveDefinite:
		return "not-positive-definite"
	case NotConverged:
		return "not-converged"
	case IOFailure:
		return "io-failure"
	case BadConfiguration:
		return "bad-configuration"
	default:
		return "unknown"
	}
}

// E is a kinded error. Non-root ranks never print it; the root rank
// prints Kind and Reason as a single diagnostic line.
type E struct {
	Kind   Kind
	Reason string
}

func (e *E) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// New constructs a kinded error wrapped with a stack trace.
func New(kind Kind, reason string) error {
	return errors.WithStack(&E{Kind: kind, Reason: reason})
}

// Newf is New with a formatted reason.
func Newf(kind Kind, format string, args ...any) error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *E
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// ShapeMismatchf reports disagreeing global dimensions between collective
// array arguments.
func ShapeMismatchf(format string, args ...any) error {
	return Newf(ShapeMismatch, format, args...)
}

// NotPositiveDefinitef reports a Cholesky or mass-matrix failure.
func NotPositiveDefinitef(format string, args ...any) error {
	return Newf(NotPositiveDefinite, format, args...)
}

// IOFailuref reports a restart/option file read or write failure.
func IOFailuref(format string, args ...any) error {
	return Newf(IOFailure, format, args...)
}

// BadConfigurationf reports a construction-time configuration error.
func BadConfigurationf(format string, args ...any) error {
	return Newf(BadConfiguration, format, args...)
}

// NotConvergedResult is the structured outcome a component boundary
// returns instead of silently returning its last state. T is the
// component's state type (scf.State, etc).
type NotConvergedResult[T any] struct {
	Err       error
	Last      T
	Iteration int
}

func (r *NotConvergedResult[T]) Error() string {
	return fmt.Sprintf("not-converged after %d iterations: %v", r.Iteration, r.Err)
}

// Unwrap exposes the wrapped kinded error so errors.As/errs.Is can
// still classify a NotConvergedResult by Kind.
func (r *NotConvergedResult[T]) Unwrap() error { return r.Err }

// NewNotConverged wraps the last state into a NotConverged outcome.
func NewNotConverged[T any](last T, iteration int, reason string) *NotConvergedResult[T] {
	return &NotConvergedResult[T]{Err: Newf(NotConverged, "%s", reason), Last: last, Iteration: iteration}
}
