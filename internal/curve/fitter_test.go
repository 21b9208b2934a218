package curve

import (
	"errors"
	"math"
	"testing"
	"time"

	"curve-desk/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func treasury(t *testing.T) domain.YieldVector {
	t.Helper()
	v, err := domain.NewYieldVector(domain.DefaultGrid, domain.KindTreasury, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), map[string]float64{
		"3M": 4.34, "6M": 4.28, "1Y": 4.10, "2Y": 4.02, "3Y": 4.01,
		"5Y": 4.09, "7Y": 4.22, "10Y": 4.31, "20Y": 4.62, "30Y": 4.62,
	})
	require.NoError(t, err)
	return v
}

func TestSplineInterpolatesObservedPoints(t *testing.T) {
	v := treasury(t)
	c, err := Fit(v, Spline)
	require.NoError(t, err)
	assert.Equal(t, Spline, c.Method())

	for _, p := range v.Points {
		assert.InDelta(t, p.YieldPct, c.Evaluate(p.Maturity.Years), 1e-9, "at %s", p.Maturity.Label)
	}
}

func TestSplineTwoPointsIsLinear(t *testing.T) {
	v := domain.YieldVector{Points: []domain.YieldPoint{
		{Maturity: domain.MaturityPoint{Label: "2Y", Years: 2}, YieldPct: 4.0},
		{Maturity: domain.MaturityPoint{Label: "10Y", Years: 10}, YieldPct: 5.0},
	}}
	c, err := Fit(v, Spline)
	require.NoError(t, err)

	assert.InDelta(t, 4.5, c.Evaluate(6), 1e-12)
	// Extrapolation follows the boundary segment.
	assert.InDelta(t, 3.75, c.Evaluate(0), 1e-12)
	assert.InDelta(t, 6.0, c.Evaluate(18), 1e-12)
}

func TestSplineExtrapolatesWithBoundaryCubic(t *testing.T) {
	c, err := splineFitter{}.Fit([]float64{1, 2, 3, 4}, []float64{1, 4, 9, 16})
	require.NoError(t, err)
	s := c.(*SplineCurve)

	// Natural boundary: the first segment's cubic extends below the first knot,
	// so the value differs from a flat extension.
	below := s.Evaluate(0.5)
	assert.NotEqual(t, 1.0, below)

	i := s.segment(0.5)
	assert.Equal(t, 0, i)
	assert.Equal(t, len(s.xs)-2, s.segment(10))
}

func TestSplineContinuousSecondDerivative(t *testing.T) {
	v := treasury(t)
	c, err := Fit(v, Spline)
	require.NoError(t, err)

	const h = 1e-4
	for _, x := range v.Years()[1 : v.Len()-1] {
		left := (c.Evaluate(x) - 2*c.Evaluate(x-h) + c.Evaluate(x-2*h)) / (h * h)
		right := (c.Evaluate(x+2*h) - 2*c.Evaluate(x+h) + c.Evaluate(x)) / (h * h)
		assert.InDelta(t, left, right, 1e-2, "second derivative jump at %v", x)
	}
}

func TestFitRejectsInsufficientData(t *testing.T) {
	one := domain.YieldVector{Points: []domain.YieldPoint{
		{Maturity: domain.MaturityPoint{Label: "2Y", Years: 2}, YieldPct: 4.0},
	}}
	for _, m := range []Method{Spline, NelsonSiegel} {
		_, err := Fit(one, m)
		var insufficient *domain.InsufficientDataError
		require.ErrorAs(t, err, &insufficient, "method %s", m)
		assert.Equal(t, 1, insufficient.Got)
	}

	unordered := domain.YieldVector{Points: []domain.YieldPoint{
		{Maturity: domain.MaturityPoint{Label: "10Y", Years: 10}, YieldPct: 4.0},
		{Maturity: domain.MaturityPoint{Label: "2Y", Years: 2}, YieldPct: 4.0},
	}}
	_, err := Fit(unordered, Spline)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestFitUnknownMethod(t *testing.T) {
	_, err := Fit(treasury(t), Method("svensson"))
	require.ErrorIs(t, err, ErrUnknownMethod)
	_, err = ParseMethod("svensson")
	require.ErrorIs(t, err, ErrUnknownMethod)

	m, err := ParseMethod("nelson_siegel")
	require.NoError(t, err)
	assert.Equal(t, NelsonSiegel, m)
}

func TestNelsonSiegelRecoversParameters(t *testing.T) {
	truth := &NelsonSiegelCurve{Beta0: 4.8, Beta1: -0.9, Beta2: 1.2, Lambda: 2.5}
	grid := domain.DefaultGrid
	values := make(map[string]float64, grid.Len())
	for _, m := range grid.Points() {
		values[m.Label] = truth.Evaluate(m.Years)
	}
	v, err := domain.NewYieldVector(grid, domain.KindTreasury, time.Time{}, values)
	require.NoError(t, err)

	c, err := Fit(v, NelsonSiegel)
	require.NoError(t, err)
	ns := c.(*NelsonSiegelCurve)

	for _, p := range v.Points {
		assert.InDelta(t, p.YieldPct, ns.Evaluate(p.Maturity.Years), 1e-3)
	}
	assert.Less(t, ns.RMSE, 1e-3)
	assert.GreaterOrEqual(t, ns.Lambda, 0.01)
	assert.LessOrEqual(t, ns.Lambda, 30.0)
}

func TestNelsonSiegelFitsMarketCurve(t *testing.T) {
	v := treasury(t)
	c, err := Fit(v, NelsonSiegel)
	require.NoError(t, err)

	ns := c.(*NelsonSiegelCurve)
	assert.Less(t, ns.RMSE, 0.15)
	assert.InDelta(t, ns.Beta0+ns.Beta1, ns.Evaluate(0), 1e-12)
}

func TestNelsonSiegelDeterministic(t *testing.T) {
	v := treasury(t)
	a, err := Fit(v, NelsonSiegel)
	require.NoError(t, err)
	b, err := Fit(v, NelsonSiegel)
	require.NoError(t, err)
	assert.Equal(t, a.Params(), b.Params())

	s1, err := Fit(v, Spline)
	require.NoError(t, err)
	s2, err := Fit(v, Spline)
	require.NoError(t, err)
	assert.Equal(t, s1.Params(), s2.Params())
}

func TestNelsonSiegelIterationBudget(t *testing.T) {
	f := NewNelsonSiegelFitter(NelsonSiegelOptions{MaxIterations: 1})
	v := treasury(t)
	_, err := f.Fit(v.Years(), v.Yields())

	var conv *domain.FitConvergenceError
	require.ErrorAs(t, err, &conv)
	assert.True(t, errors.Is(err, domain.ErrFitConvergence))
	assert.Equal(t, "nelson_siegel", conv.Method)
}

func TestNSLoadingsAtZero(t *testing.T) {
	f1, f2 := nsLoadings(0, 1.5)
	assert.Equal(t, 1.0, f1)
	assert.Equal(t, 0.0, f2)

	f1, _ = nsLoadings(1e-8, 1.5)
	assert.InDelta(t, 1.0, f1, 1e-6)
}

func TestLambdaTransformRoundTrip(t *testing.T) {
	for _, l := range []float64{0.5, 1, 2.5, 10, 29} {
		u := unboundLambda(l, 0.01, 30)
		assert.InDelta(t, l, boundedLambda(u, 0.01, 30), 1e-9)
	}
	assert.False(t, math.IsInf(unboundLambda(30, 0.01, 30), 0))
}

func TestSample(t *testing.T) {
	c, err := Fit(treasury(t), Spline)
	require.NoError(t, err)

	pts := Sample(c, 0.25, 30, 200)
	require.Len(t, pts, 200)
	assert.Equal(t, 0.25, pts[0].Years)
	assert.InDelta(t, 30, pts[199].Years, 1e-12)
	assert.InDelta(t, 4.34, pts[0].YieldPct, 1e-9)
}

type constantCurve float64

func (c constantCurve) Method() Method           { return "flat" }
func (c constantCurve) Evaluate(float64) float64 { return float64(c) }
func (c constantCurve) Params() map[string]any   { return map[string]any{"level": float64(c)} }

type flatFitter struct{}

func (flatFitter) Fit(xs, ys []float64) (FittedCurve, error) {
	var sum float64
	for _, y := range ys {
		sum += y
	}
	return constantCurve(sum / float64(len(ys))), nil
}

func TestRegisterAddsMethod(t *testing.T) {
	Register("flat", flatFitter{})
	t.Cleanup(func() {
		registryMu.Lock()
		delete(registry, "flat")
		registryMu.Unlock()
	})

	c, err := Fit(treasury(t), "flat")
	require.NoError(t, err)
	assert.InDelta(t, 4.261, c.Evaluate(7), 1e-9)
	assert.Contains(t, Methods(), Method("flat"))
}
