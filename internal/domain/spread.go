package domain

import (
	"math"
	"sort"
)

// Bounds applied to assumed credit spreads, in percent. Negative spreads are
// rejected rather than clamped.
const (
	MinSpreadPct = 0.0
	MaxSpreadPct = 20.0
)

// SpreadTable is a sparse maturity→credit spread assumption (percent).
type SpreadTable map[string]float64

// DefaultSpreadTable holds the assumed historical average spreads.
func DefaultSpreadTable() SpreadTable {
	return SpreadTable{
		"2Y":  1.0,
		"5Y":  1.5,
		"10Y": 2.0,
		"20Y": 2.5,
		"30Y": 3.0,
	}
}

// Clone returns an independent copy.
func (t SpreadTable) Clone() SpreadTable {
	out := make(SpreadTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// ValidateSpread rejects non-finite or out-of-bounds spreads.
func ValidateSpread(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &InvalidValueError{Field: field, Value: v, Reason: "not a finite number"}
	}
	if v < MinSpreadPct || v > MaxSpreadPct {
		return &InvalidValueError{Field: field, Value: v, Reason: "spread outside [0, 20] percent"}
	}
	return nil
}

// Validate checks every entry against grid and the spread bounds.
func (t SpreadTable) Validate(grid *Grid) error {
	if len(t) == 0 {
		return &InsufficientDataError{Got: 0, Need: 1, Reason: "spread table is empty"}
	}
	for _, label := range t.sortedLabels(grid) {
		if grid.Index(label) < 0 {
			return &UnknownMaturityError{Label: label}
		}
		if err := ValidateSpread(label, t[label]); err != nil {
			return err
		}
	}
	return nil
}

// Knots returns the table as (years, spread) pairs sorted by maturity.
func (t SpreadTable) Knots(grid *Grid) (xs, ys []float64, err error) {
	if err := t.Validate(grid); err != nil {
		return nil, nil, err
	}
	labels := t.sortedLabels(grid)
	xs = make([]float64, len(labels))
	ys = make([]float64, len(labels))
	for i, label := range labels {
		m, _ := grid.Lookup(label)
		xs[i] = m.Years
		ys[i] = t[label]
	}
	return xs, ys, nil
}

func (t SpreadTable) sortedLabels(grid *Grid) []string {
	labels := make([]string, 0, len(t))
	for label := range t {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	grid.SortLabels(labels)
	return labels
}

// SlopeIndicator is the long-minus-short yield difference.
type SlopeIndicator struct {
	Short     string  `json:"short"`
	Long      string  `json:"long"`
	SpreadPct float64 `json:"spread_pct"`
	Inverted  bool    `json:"inverted"`
}

// Regime returns "inverted" or "normal". A zero slope counts as normal.
func (s SlopeIndicator) Regime() string {
	if s.Inverted {
		return "inverted"
	}
	return "normal"
}
