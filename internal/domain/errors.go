package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds. Every typed error below unwraps to exactly one of these so
// callers can branch with errors.Is without caring about the detail.
var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrFitConvergence   = errors.New("fit did not converge")
	ErrShapeMismatch    = errors.New("shape mismatch")
	ErrMissingMaturity  = errors.New("missing maturity")
	ErrUnknownMaturity  = errors.New("unknown maturity")
	ErrInvalidValue     = errors.New("invalid value")
)

type InsufficientDataError struct {
	Got  int
	Need int
	// Reason is set when the count is fine but the points are unusable.
	Reason string
}

func (e *InsufficientDataError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("insufficient data: %s", e.Reason)
	}
	return fmt.Sprintf("insufficient data: got %d points, need at least %d", e.Got, e.Need)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

type FitConvergenceError struct {
	Method     string
	Iterations int
	Status     string
}

func (e *FitConvergenceError) Error() string {
	return fmt.Sprintf("%s fit did not converge after %d iterations (%s)", e.Method, e.Iterations, e.Status)
}

func (e *FitConvergenceError) Unwrap() error { return ErrFitConvergence }

type ShapeMismatchError struct {
	Want    int
	Got     int
	Missing []string
	Detail  string
}

func (e *ShapeMismatchError) Error() string {
	switch {
	case len(e.Missing) > 0:
		return fmt.Sprintf("shape mismatch: missing maturities %s", strings.Join(e.Missing, ", "))
	case e.Detail != "":
		return "shape mismatch: " + e.Detail
	default:
		return fmt.Sprintf("shape mismatch: want %d points, got %d", e.Want, e.Got)
	}
}

func (e *ShapeMismatchError) Unwrap() error { return ErrShapeMismatch }

type MissingMaturityError struct {
	Label string
}

func (e *MissingMaturityError) Error() string {
	return fmt.Sprintf("missing maturity %s", e.Label)
}

func (e *MissingMaturityError) Unwrap() error { return ErrMissingMaturity }

type UnknownMaturityError struct {
	Label string
}

func (e *UnknownMaturityError) Error() string {
	return fmt.Sprintf("unknown maturity %q", e.Label)
}

func (e *UnknownMaturityError) Unwrap() error { return ErrUnknownMaturity }

type InvalidValueError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value for %s (%g): %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidValueError) Unwrap() error { return ErrInvalidValue }

// IsInputError reports whether err is caused by caller-supplied data rather
// than an upstream failure.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrShapeMismatch) ||
		errors.Is(err, ErrMissingMaturity) ||
		errors.Is(err, ErrUnknownMaturity) ||
		errors.Is(err, ErrInvalidValue)
}
