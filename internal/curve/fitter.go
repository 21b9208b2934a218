// Package curve fits continuous yield curves to sparse (maturity, yield)
// observations. Every fit returns a new immutable FittedCurve.
package curve

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"curve-desk/internal/domain"

	"gonum.org/v1/gonum/floats"
)

// Method names a curve-fitting strategy.
type Method string

const (
	Spline       Method = "spline"
	NelsonSiegel Method = "nelson_siegel"
)

// FittedCurve maps a maturity in years to a fitted yield in percent.
type FittedCurve interface {
	Method() Method
	Evaluate(years float64) float64
	// Params returns the fit parameters in a JSON-friendly form.
	Params() map[string]any
}

// Fitter builds a FittedCurve from strictly increasing xs.
type Fitter interface {
	Fit(xs, ys []float64) (FittedCurve, error)
}

// ErrUnknownMethod is returned for a method that has not been registered.
var ErrUnknownMethod = errors.New("unknown fit method")

var (
	registryMu sync.RWMutex
	registry   = map[Method]Fitter{
		Spline:       splineFitter{},
		NelsonSiegel: NewNelsonSiegelFitter(DefaultNelsonSiegelOptions()),
	}
)

// Register installs f under m, replacing any previous fitter.
func Register(m Method, f Fitter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[m] = f
}

// Methods lists the registered methods in name order.
func Methods() []Method {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Method, 0, len(registry))
	for m := range registry {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseMethod resolves a registered method by name.
func ParseMethod(name string) (Method, error) {
	m := Method(name)
	registryMu.RLock()
	_, ok := registry[m]
	registryMu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownMethod, name)
	}
	return m, nil
}

// Fit fits points with the given method. Points need at least two entries
// with strictly increasing maturities.
func Fit(points domain.YieldVector, method Method) (FittedCurve, error) {
	registryMu.RLock()
	f, ok := registry[method]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownMethod, method)
	}

	xs, ys := points.Years(), points.Yields()
	if err := checkPoints(xs, ys); err != nil {
		return nil, err
	}
	return f.Fit(xs, ys)
}

func checkPoints(xs, ys []float64) error {
	if len(xs) != len(ys) {
		return &domain.ShapeMismatchError{Want: len(xs), Got: len(ys)}
	}
	if len(xs) < 2 {
		return &domain.InsufficientDataError{Got: len(xs), Need: 2}
	}
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return &domain.InsufficientDataError{
				Got:    len(xs),
				Need:   2,
				Reason: fmt.Sprintf("maturities not strictly increasing at position %d", i),
			}
		}
	}
	for i, y := range ys {
		if err := domain.ValidateYield(fmt.Sprintf("point %d", i), y); err != nil {
			return err
		}
	}
	return nil
}

// SamplePoint is one point of a sampled curve.
type SamplePoint struct {
	Years    float64 `json:"years"`
	YieldPct float64 `json:"yield_pct"`
}

// Sample evaluates c at n evenly spaced maturities in [from, to].
func Sample(c FittedCurve, from, to float64, n int) []SamplePoint {
	if n < 2 {
		n = 2
	}
	xs := floats.Span(make([]float64, n), from, to)
	out := make([]SamplePoint, n)
	for i, x := range xs {
		out[i] = SamplePoint{Years: x, YieldPct: c.Evaluate(x)}
	}
	return out
}
