// Package analysis runs the full curve pipeline for one scenario state and
// returns an immutable snapshot of every derived output.
package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"curve-desk/internal/credit"
	"curve-desk/internal/curve"
	"curve-desk/internal/domain"
	"curve-desk/internal/scenario"
)

// FitOutcome is one fitted curve, or the reason it is unavailable.
type FitOutcome struct {
	Method    curve.Method        `json:"method"`
	Available bool                `json:"available"`
	Error     string              `json:"error,omitempty"`
	Params    map[string]any      `json:"params,omitempty"`
	Samples   []curve.SamplePoint `json:"samples,omitempty"`

	curve curve.FittedCurve
}

// Curve returns the fitted curve, or nil when the fit failed.
func (f FitOutcome) Curve() curve.FittedCurve { return f.curve }

// Result is everything one pipeline run produces.
type Result struct {
	Key            string                      `json:"key"`
	GeneratedAt    time.Time                   `json:"generated_at"`
	Override       domain.ScenarioOverride     `json:"override"`
	SpreadTable    domain.SpreadTable          `json:"spread_table"`
	Treasury       domain.YieldVector          `json:"treasury"`
	Corporate      domain.YieldVector          `json:"corporate"`
	SpreadCurve    domain.YieldVector          `json:"spread_curve"`
	Slope          domain.SlopeIndicator       `json:"slope"`
	CorporateSlope domain.SlopeIndicator       `json:"corporate_slope"`
	Fits           map[curve.Method]FitOutcome `json:"fits"`
}

// Options controls the rendering side of a run.
type Options struct {
	// SamplePoints is the number of evenly spaced points per fitted curve.
	SamplePoints int
	Methods      []curve.Method
}

func DefaultOptions() Options {
	return Options{SamplePoints: 200, Methods: []curve.Method{curve.Spline, curve.NelsonSiegel}}
}

// Pipeline wires the scenario engine, synthesizer, calculator and fitters
// for one grid.
type Pipeline struct {
	grid   *domain.Grid
	engine *scenario.Engine
	opts   Options
	now    func() time.Time
}

func New(grid *domain.Grid, opts Options) *Pipeline {
	if opts.SamplePoints < 2 {
		opts.SamplePoints = DefaultOptions().SamplePoints
	}
	if len(opts.Methods) == 0 {
		opts.Methods = DefaultOptions().Methods
	}
	return &Pipeline{
		grid:   grid,
		engine: scenario.NewEngine(grid),
		opts:   opts,
		now:    time.Now,
	}
}

// Run applies override to base and table, then derives every output. Fit
// failures are recorded on the result rather than failing the run; every
// other error is returned.
func (p *Pipeline) Run(base domain.YieldVector, table domain.SpreadTable, override domain.ScenarioOverride) (*Result, error) {
	tsy, err := p.engine.Apply(base, override)
	if err != nil {
		return nil, err
	}
	spreads, err := p.engine.ApplySpreadOverrides(table, override)
	if err != nil {
		return nil, err
	}

	corp, err := credit.Synthesize(p.grid, tsy, spreads)
	if err != nil {
		return nil, err
	}
	spreadCurve, err := credit.SpreadCurve(corp, tsy)
	if err != nil {
		return nil, err
	}
	slope, err := credit.Slope10Y2Y(tsy)
	if err != nil {
		return nil, err
	}
	corpSlope, err := credit.Slope10Y2Y(corp)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Key:            Key(base, table, override),
		GeneratedAt:    p.now().UTC(),
		Override:       override,
		SpreadTable:    spreads,
		Treasury:       tsy,
		Corporate:      corp,
		SpreadCurve:    spreadCurve,
		Slope:          slope,
		CorporateSlope: corpSlope,
		Fits:           make(map[curve.Method]FitOutcome, len(p.opts.Methods)),
	}

	for _, m := range p.opts.Methods {
		res.Fits[m], _ = FitCurve(tsy, m, p.opts.SamplePoints)
	}
	return res, nil
}

// FitCurve fits v with m and samples n points between its shortest and
// longest maturity. On failure the outcome is marked unavailable and the
// fit error is also returned.
func FitCurve(v domain.YieldVector, m curve.Method, n int) (FitOutcome, error) {
	c, err := curve.Fit(v, m)
	if err != nil {
		return FitOutcome{Method: m, Error: err.Error()}, err
	}
	years := v.Years()
	return FitOutcome{
		Method:    m,
		Available: true,
		Params:    c.Params(),
		Samples:   curve.Sample(c, years[0], years[len(years)-1], n),
		curve:     c,
	}, nil
}

// Key identifies the scenario state that produced a result: the base curve
// values and date, the spread table and the override.
func Key(base domain.YieldVector, table domain.SpreadTable, override domain.ScenarioOverride) string {
	payload := struct {
		AsOf     time.Time               `json:"as_of"`
		Labels   []string                `json:"labels"`
		Yields   []float64               `json:"yields"`
		Table    [][2]any                `json:"table"`
		Override domain.ScenarioOverride `json:"override"`
	}{
		AsOf:     base.AsOf.UTC(),
		Labels:   base.Labels(),
		Yields:   base.Yields(),
		Table:    sortedTable(table),
		Override: override,
	}
	// encoding/json sorts map keys, so the override encodes canonically.
	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

func sortedTable(t domain.SpreadTable) [][2]any {
	labels := make([]string, 0, len(t))
	for l := range t {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	out := make([][2]any, len(labels))
	for i, l := range labels {
		out[i] = [2]any{l, t[l]}
	}
	return out
}
