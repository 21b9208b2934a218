package domain

import (
	"math"
	"strconv"
	"time"
)

// CurveKind tags what a YieldVector holds.
type CurveKind string

const (
	KindTreasury  CurveKind = "treasury"
	KindCorporate CurveKind = "corporate"
	KindSpread    CurveKind = "spread"
)

// Plausible yield range, in percent.
const (
	MinYieldPct = -10.0
	MaxYieldPct = 50.0
)

// YieldPoint is one observation on a YieldVector.
type YieldPoint struct {
	Maturity MaturityPoint `json:"maturity"`
	YieldPct float64       `json:"yield_pct"`
}

// YieldVector is an ordered sequence of yields aligned 1:1 with a grid.
// Values are never mutated after construction; use Clone before editing.
type YieldVector struct {
	Kind   CurveKind    `json:"kind"`
	AsOf   time.Time    `json:"as_of"`
	Points []YieldPoint `json:"points"`
}

// Observation is a single dated value reported by a data source.
type Observation struct {
	SeriesID string    `json:"series_id"`
	Date     time.Time `json:"date"`
	Value    float64   `json:"value"`
}

// ValidateYield rejects non-finite or implausible yields.
func ValidateYield(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &InvalidValueError{Field: field, Value: v, Reason: "not a finite number"}
	}
	if v < MinYieldPct || v > MaxYieldPct {
		return &InvalidValueError{Field: field, Value: v, Reason: "outside plausible yield range"}
	}
	return nil
}

// NewYieldVector aligns values onto grid. A grid maturity with no value is a
// ShapeMismatchError; it is never defaulted to zero.
func NewYieldVector(grid *Grid, kind CurveKind, asOf time.Time, values map[string]float64) (YieldVector, error) {
	for label := range values {
		if grid.Index(label) < 0 {
			return YieldVector{}, &UnknownMaturityError{Label: label}
		}
	}

	var missing []string
	points := make([]YieldPoint, 0, grid.Len())
	for _, m := range grid.points {
		v, ok := values[m.Label]
		if !ok {
			missing = append(missing, m.Label)
			continue
		}
		if err := ValidateYield(m.Label, v); err != nil {
			return YieldVector{}, err
		}
		points = append(points, YieldPoint{Maturity: m, YieldPct: v})
	}
	if len(missing) > 0 {
		return YieldVector{}, &ShapeMismatchError{Want: grid.Len(), Got: len(points), Missing: missing}
	}
	return YieldVector{Kind: kind, AsOf: asOf, Points: points}, nil
}

// Clone returns a deep copy.
func (v YieldVector) Clone() YieldVector {
	out := v
	out.Points = make([]YieldPoint, len(v.Points))
	copy(out.Points, v.Points)
	return out
}

func (v YieldVector) Len() int { return len(v.Points) }

func (v YieldVector) Yields() []float64 {
	out := make([]float64, len(v.Points))
	for i, p := range v.Points {
		out[i] = p.YieldPct
	}
	return out
}

func (v YieldVector) Years() []float64 {
	out := make([]float64, len(v.Points))
	for i, p := range v.Points {
		out[i] = p.Maturity.Years
	}
	return out
}

func (v YieldVector) Labels() []string {
	out := make([]string, len(v.Points))
	for i, p := range v.Points {
		out[i] = p.Maturity.Label
	}
	return out
}

// At returns the yield for label.
func (v YieldVector) At(label string) (float64, bool) {
	for _, p := range v.Points {
		if p.Maturity.Label == label {
			return p.YieldPct, true
		}
	}
	return 0, false
}

// Values returns a label→yield map.
func (v YieldVector) Values() map[string]float64 {
	out := make(map[string]float64, len(v.Points))
	for _, p := range v.Points {
		out[p.Maturity.Label] = p.YieldPct
	}
	return out
}

// AlignedWith checks that both vectors share the same maturities in the same order.
func (v YieldVector) AlignedWith(other YieldVector) error {
	if len(v.Points) != len(other.Points) {
		return &ShapeMismatchError{Want: len(v.Points), Got: len(other.Points)}
	}
	for i := range v.Points {
		if v.Points[i].Maturity != other.Points[i].Maturity {
			return &ShapeMismatchError{Detail: "maturity " + v.Points[i].Maturity.Label + " vs " + other.Points[i].Maturity.Label + " at position " + strconv.Itoa(i)}
		}
	}
	return nil
}

// CoversGrid checks that v is aligned exactly with grid.
func (v YieldVector) CoversGrid(grid *Grid) error {
	if len(v.Points) != grid.Len() {
		var missing []string
		for _, m := range grid.points {
			if _, ok := v.At(m.Label); !ok {
				missing = append(missing, m.Label)
			}
		}
		return &ShapeMismatchError{Want: grid.Len(), Got: len(v.Points), Missing: missing}
	}
	for i, p := range v.Points {
		if p.Maturity != grid.points[i] {
			return &ShapeMismatchError{Detail: "maturity " + p.Maturity.Label + " is not aligned with grid position " + strconv.Itoa(i)}
		}
	}
	return nil
}
