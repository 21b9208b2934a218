// Package scenario applies what-if overrides to Treasury yields and the
// credit-spread table. It never fits or derives curves itself, and it never
// mutates its inputs.
package scenario

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"curve-desk/internal/credit"
	"curve-desk/internal/domain"
)

// ErrUnknownMode is returned for an override mode other than delta or absolute.
var ErrUnknownMode = errors.New("unknown override mode")

// Engine validates and applies overrides against one maturity grid.
type Engine struct {
	grid *domain.Grid
}

func NewEngine(grid *domain.Grid) *Engine {
	return &Engine{grid: grid}
}

var defaultEngine = NewEngine(domain.DefaultGrid)

// Apply applies o.Yields to a copy of base using the default grid.
func Apply(base domain.YieldVector, o domain.ScenarioOverride) (domain.YieldVector, error) {
	return defaultEngine.Apply(base, o)
}

// ApplySpreadOverrides applies o.Spreads to a copy of base using the default grid.
func ApplySpreadOverrides(base domain.SpreadTable, o domain.ScenarioOverride) (domain.SpreadTable, error) {
	return defaultEngine.ApplySpreadOverrides(base, o)
}

// Validate checks labels, modes and finiteness without applying anything.
func (e *Engine) Validate(o domain.ScenarioOverride) error {
	if !o.YieldMode.Valid() {
		return fmt.Errorf("yield: %w %q", ErrUnknownMode, o.YieldMode)
	}
	if !o.SpreadMode.Valid() {
		return fmt.Errorf("spread: %w %q", ErrUnknownMode, o.SpreadMode)
	}
	if err := e.checkEntries(o.Yields); err != nil {
		return err
	}
	return e.checkEntries(o.Spreads)
}

func (e *Engine) checkEntries(entries map[string]float64) error {
	for _, label := range e.ordered(entries) {
		if e.grid.Index(label) < 0 {
			return &domain.UnknownMaturityError{Label: label}
		}
		v := entries[label]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &domain.InvalidValueError{Field: label, Value: v, Reason: "not a finite number"}
		}
	}
	return nil
}

// Apply returns a copy of base with o.Yields replaced or shifted. Maturities
// not named in the override are carried over unchanged. On any error base is
// untouched and the zero vector is returned.
func (e *Engine) Apply(base domain.YieldVector, o domain.ScenarioOverride) (domain.YieldVector, error) {
	if err := e.Validate(o); err != nil {
		return domain.YieldVector{}, err
	}
	if err := base.CoversGrid(e.grid); err != nil {
		return domain.YieldVector{}, err
	}

	out := base.Clone()
	for _, label := range e.ordered(o.Yields) {
		i := e.grid.Index(label)
		v := o.Yields[label]
		if o.YieldMode == domain.ModeAbsolute {
			out.Points[i].YieldPct = v
		} else {
			out.Points[i].YieldPct += v
		}
		if err := domain.ValidateYield(label, out.Points[i].YieldPct); err != nil {
			return domain.YieldVector{}, err
		}
	}
	return out, nil
}

// ApplySpreadOverrides returns a new table with o.Spreads applied. A delta on
// a maturity that is not yet a table knot shifts the interpolated spread at
// that maturity and inserts it as a knot.
func (e *Engine) ApplySpreadOverrides(base domain.SpreadTable, o domain.ScenarioOverride) (domain.SpreadTable, error) {
	if err := e.Validate(o); err != nil {
		return nil, err
	}
	out := base.Clone()
	if len(o.Spreads) == 0 {
		return out, nil
	}

	var interpolated domain.YieldVector
	if o.SpreadMode != domain.ModeAbsolute {
		var err error
		interpolated, err = credit.InterpolateSpreads(e.grid, base)
		if err != nil {
			return nil, err
		}
	}

	for _, label := range e.ordered(o.Spreads) {
		v := o.Spreads[label]
		if o.SpreadMode == domain.ModeAbsolute {
			out[label] = v
		} else {
			cur, ok := base[label]
			if !ok {
				cur, _ = interpolated.At(label)
			}
			out[label] = cur + v
		}
		if err := domain.ValidateSpread(label, out[label]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ordered returns the keys of entries in grid order, unknown labels last.
func (e *Engine) ordered(entries map[string]float64) []string {
	labels := make([]string, 0, len(entries))
	for label := range entries {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	e.grid.SortLabels(labels)
	return labels
}
