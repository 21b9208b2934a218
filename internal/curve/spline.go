package curve

import "sort"

// splineFitter builds a natural cubic spline: second derivative is zero at
// both end knots.
type splineFitter struct{}

// SplineCurve is a natural cubic interpolant through every observed point.
// Outside the observed range it evaluates the cubic of the boundary segment,
// so extrapolated yields are not economically validated and may diverge.
type SplineCurve struct {
	xs []float64
	ys []float64
	m  []float64 // second derivatives at the knots
}

func (splineFitter) Fit(xs, ys []float64) (FittedCurve, error) {
	n := len(xs)
	c := &SplineCurve{
		xs: append([]float64(nil), xs...),
		ys: append([]float64(nil), ys...),
		m:  make([]float64, n),
	}
	if n < 3 {
		return c, nil
	}

	// Tridiagonal system for the interior second derivatives (Thomas algorithm).
	k := n - 2
	sub := make([]float64, k)
	diag := make([]float64, k)
	sup := make([]float64, k)
	rhs := make([]float64, k)
	for i := 1; i <= n-2; i++ {
		h0 := xs[i] - xs[i-1]
		h1 := xs[i+1] - xs[i]
		sub[i-1] = h0
		diag[i-1] = 2 * (h0 + h1)
		sup[i-1] = h1
		rhs[i-1] = 6 * ((ys[i+1]-ys[i])/h1 - (ys[i]-ys[i-1])/h0)
	}
	for i := 1; i < k; i++ {
		w := sub[i] / diag[i-1]
		diag[i] -= w * sup[i-1]
		rhs[i] -= w * rhs[i-1]
	}
	sol := make([]float64, k)
	sol[k-1] = rhs[k-1] / diag[k-1]
	for i := k - 2; i >= 0; i-- {
		sol[i] = (rhs[i] - sup[i]*sol[i+1]) / diag[i]
	}
	copy(c.m[1:n-1], sol)
	return c, nil
}

func (c *SplineCurve) Method() Method { return Spline }

func (c *SplineCurve) Evaluate(x float64) float64 {
	i := c.segment(x)
	x0, x1 := c.xs[i], c.xs[i+1]
	h := x1 - x0
	a := x1 - x
	b := x - x0
	return c.m[i]*a*a*a/(6*h) +
		c.m[i+1]*b*b*b/(6*h) +
		(c.ys[i]/h-c.m[i]*h/6)*a +
		(c.ys[i+1]/h-c.m[i+1]*h/6)*b
}

// segment returns the index of the polynomial piece used for x, clamped to
// the boundary pieces outside the observed range.
func (c *SplineCurve) segment(x float64) int {
	idx := sort.SearchFloat64s(c.xs, x)
	i := idx - 1
	if i < 0 {
		i = 0
	}
	if i > len(c.xs)-2 {
		i = len(c.xs) - 2
	}
	return i
}

func (c *SplineCurve) Params() map[string]any {
	return map[string]any{
		"boundary":          "natural",
		"knots":             append([]float64(nil), c.xs...),
		"values":            append([]float64(nil), c.ys...),
		"second_derivative": append([]float64(nil), c.m...),
	}
}

// Knots returns the maturities the spline passes through.
func (c *SplineCurve) Knots() []float64 {
	return append([]float64(nil), c.xs...)
}
