package domain

import "time"

// OverrideMode selects how an override value is applied.
type OverrideMode string

const (
	// ModeDelta adds the value to the base.
	ModeDelta OverrideMode = "delta"
	// ModeAbsolute replaces the base.
	ModeAbsolute OverrideMode = "absolute"
)

// Valid reports whether m is a known mode. The empty mode means delta.
func (m OverrideMode) Valid() bool {
	return m == "" || m == ModeDelta || m == ModeAbsolute
}

// ScenarioOverride is a sparse what-if edit of the Treasury yields and the
// spread table, keyed by maturity label.
type ScenarioOverride struct {
	Yields     map[string]float64 `json:"yields,omitempty"`
	YieldMode  OverrideMode       `json:"yield_mode,omitempty"`
	Spreads    map[string]float64 `json:"spreads,omitempty"`
	SpreadMode OverrideMode       `json:"spread_mode,omitempty"`
}

// IsEmpty reports whether the override changes nothing.
func (o ScenarioOverride) IsEmpty() bool {
	return len(o.Yields) == 0 && len(o.Spreads) == 0
}

// ScenarioRun is the persisted summary of one analysis.
type ScenarioRun struct {
	Key       string           `json:"key"`
	AsOf      time.Time        `json:"as_of"`
	Override  ScenarioOverride `json:"override"`
	SlopePct  float64          `json:"slope_pct"`
	Inverted  bool             `json:"inverted"`
	CreatedAt time.Time        `json:"created_at"`
}
