// Package credit derives the synthetic corporate curve, the credit-spread
// curve and slope indicators from a Treasury curve.
package credit

import (
	"sort"

	"curve-desk/internal/domain"
)

// InterpolateSpreads extends the sparse spread table onto every grid
// maturity. Interpolation is linear in years; maturities outside the table
// take the nearest end value.
func InterpolateSpreads(grid *domain.Grid, table domain.SpreadTable) (domain.YieldVector, error) {
	xs, ys, err := table.Knots(grid)
	if err != nil {
		return domain.YieldVector{}, err
	}

	points := make([]domain.YieldPoint, grid.Len())
	for i, m := range grid.Points() {
		points[i] = domain.YieldPoint{Maturity: m, YieldPct: interpFlat(m.Years, xs, ys)}
	}
	return domain.YieldVector{Kind: domain.KindSpread, Points: points}, nil
}

// interpFlat is piecewise-linear interpolation with flat extrapolation.
func interpFlat(x float64, xs, ys []float64) float64 {
	n := len(xs)
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[n-1] {
		return ys[n-1]
	}
	i := sort.SearchFloat64s(xs, x)
	if xs[i] == x {
		return ys[i]
	}
	x0, x1 := xs[i-1], xs[i]
	w := (x - x0) / (x1 - x0)
	return ys[i-1] + w*(ys[i]-ys[i-1])
}

// Synthesize adds the interpolated spread to each Treasury yield. The
// Treasury vector must cover grid exactly.
func Synthesize(grid *domain.Grid, treasury domain.YieldVector, table domain.SpreadTable) (domain.YieldVector, error) {
	if err := treasury.CoversGrid(grid); err != nil {
		return domain.YieldVector{}, err
	}
	spreads, err := InterpolateSpreads(grid, table)
	if err != nil {
		return domain.YieldVector{}, err
	}

	corp := treasury.Clone()
	corp.Kind = domain.KindCorporate
	for i := range corp.Points {
		corp.Points[i].YieldPct += spreads.Points[i].YieldPct
	}
	return corp, nil
}
