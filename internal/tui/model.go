// Package tui is the interactive scenario explorer served over SSH.
package tui

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"curve-desk/internal/analysis"
	"curve-desk/internal/curve"
	"curve-desk/internal/domain"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	defaultStep   = 0.05
	sparkWidth    = 48
	loadTimeout   = 20 * time.Second
	deltaEpsilon  = 1e-9
	deltaDecimals = 1e6
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// CurveSource supplies the base curve and assumptions the explorer edits.
type CurveSource interface {
	Grid() *domain.Grid
	BaseSpreads() domain.SpreadTable
	LatestTreasury(ctx context.Context) (domain.YieldVector, error)
}

// Services is everything one session needs.
type Services struct {
	Curves   CurveSource
	Username string
	// Step is the bump size in percentage points.
	Step float64
}

type curveLoadedMsg struct {
	curve domain.YieldVector
	err   error
}

// AppModel is the bubbletea model for one session. Every edit re-runs the
// analysis pipeline locally against the loaded base curve.
type AppModel struct {
	svc      Services
	grid     *domain.Grid
	pipeline *analysis.Pipeline
	methods  []curve.Method

	base    domain.YieldVector
	table   domain.SpreadTable
	loaded  bool
	loadErr error

	yieldDeltas  map[string]float64
	spreadDeltas map[string]float64

	cursor     int
	editSpread bool
	showChange bool
	methodIdx  int

	result *analysis.Result
	status string

	tbl    table.Model
	help   help.Model
	keys   keyMap
	width  int
	height int
}

func NewAppModel(svc Services) *AppModel {
	if svc.Step <= 0 {
		svc.Step = defaultStep
	}
	if svc.Username == "" {
		svc.Username = "unknown"
	}
	grid := svc.Curves.Grid()
	opts := analysis.Options{
		SamplePoints: sparkWidth,
		Methods:      []curve.Method{curve.Spline, curve.NelsonSiegel},
	}

	m := &AppModel{
		svc:          svc,
		grid:         grid,
		pipeline:     analysis.New(grid, opts),
		methods:      opts.Methods,
		table:        svc.Curves.BaseSpreads(),
		yieldDeltas:  make(map[string]float64),
		spreadDeltas: make(map[string]float64),
		help:         help.New(),
		keys:         defaultKeyMap(),
	}
	m.tbl = table.New(
		table.WithColumns(m.columns()),
		table.WithHeight(grid.Len()+1),
		table.WithFocused(true),
	)
	m.tbl.SetRows(m.rows())
	return m
}

// SetSize records the terminal dimensions.
func (m *AppModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
}

func (m *AppModel) Init() tea.Cmd {
	return m.loadCurve()
}

func (m *AppModel) loadCurve() tea.Cmd {
	curves := m.svc.Curves
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		v, err := curves.LatestTreasury(ctx)
		return curveLoadedMsg{curve: v, err: err}
	}
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case curveLoadedMsg:
		if msg.err != nil {
			m.loadErr = msg.err
			return m, nil
		}
		m.base = msg.curve
		m.loaded = true
		m.loadErr = nil
		m.status = ""
		if err := m.recompute(); err != nil {
			// Edits that were valid against the old curve may not be now.
			m.resetEdits()
			m.status = "edits cleared: " + err.Error()
			_ = m.recompute()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Reload):
		m.status = "reloading curve..."
		return m, m.loadCurve()
	}
	if !m.loaded {
		return m, nil
	}

	m.status = ""
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < m.grid.Len()-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Raise):
		m.bump(1)
	case key.Matches(msg, m.keys.Lower):
		m.bump(-1)
	case key.Matches(msg, m.keys.Toggle):
		m.editSpread = !m.editSpread
	case key.Matches(msg, m.keys.Mode):
		m.showChange = !m.showChange
		m.tbl.SetColumns(m.columns())
		m.tbl.SetRows(m.rows())
	case key.Matches(msg, m.keys.Fit):
		m.methodIdx = (m.methodIdx + 1) % len(m.methods)
	case key.Matches(msg, m.keys.Reset):
		m.resetEdits()
		_ = m.recompute()
	}
	m.tbl.SetCursor(m.cursor)
	return m, nil
}

// bump shifts the selected maturity by one step. An edit the pipeline rejects
// is rolled back and reported.
func (m *AppModel) bump(sign float64) {
	label := m.grid.At(m.cursor).Label
	deltas := m.yieldDeltas
	if m.editSpread {
		deltas = m.spreadDeltas
	}

	prev, had := deltas[label]
	next := math.Round((prev+sign*m.svc.Step)*deltaDecimals) / deltaDecimals
	if math.Abs(next) < deltaEpsilon {
		delete(deltas, label)
	} else {
		deltas[label] = next
	}

	if err := m.recompute(); err != nil {
		if had {
			deltas[label] = prev
		} else {
			delete(deltas, label)
		}
		m.status = err.Error()
	}
}

func (m *AppModel) resetEdits() {
	m.yieldDeltas = make(map[string]float64)
	m.spreadDeltas = make(map[string]float64)
}

func (m *AppModel) override() domain.ScenarioOverride {
	var o domain.ScenarioOverride
	if len(m.yieldDeltas) > 0 {
		o.Yields = copyDeltas(m.yieldDeltas)
	}
	if len(m.spreadDeltas) > 0 {
		o.Spreads = copyDeltas(m.spreadDeltas)
	}
	return o
}

func (m *AppModel) recompute() error {
	res, err := m.pipeline.Run(m.base, m.table, m.override())
	if err != nil {
		return err
	}
	m.result = res
	m.tbl.SetRows(m.rows())
	return nil
}

func (m *AppModel) columns() []table.Column {
	if m.showChange {
		return []table.Column{
			{Title: "Maturity", Width: 8},
			{Title: "Tsy Δbp", Width: 9},
			{Title: "Spread Δbp", Width: 11},
			{Title: "Corp", Width: 8},
		}
	}
	return []table.Column{
		{Title: "Maturity", Width: 8},
		{Title: "Treasury", Width: 9},
		{Title: "Corporate", Width: 10},
		{Title: "Spread", Width: 8},
	}
}

func (m *AppModel) rows() []table.Row {
	rows := make([]table.Row, 0, m.grid.Len())
	for _, p := range m.grid.Points() {
		label := p.Label
		if m.result == nil {
			rows = append(rows, table.Row{label, "-", "-", "-"})
			continue
		}
		tsy, _ := m.result.Treasury.At(label)
		corp, _ := m.result.Corporate.At(label)
		spread, _ := m.result.SpreadCurve.At(label)
		if m.showChange {
			rows = append(rows, table.Row{
				label,
				formatBps(m.yieldDeltas[label]),
				formatBps(m.spreadDeltas[label]),
				fmt.Sprintf("%.2f", corp),
			})
			continue
		}
		rows = append(rows, table.Row{
			label,
			fmt.Sprintf("%.2f", tsy),
			fmt.Sprintf("%.2f", corp),
			fmt.Sprintf("%.2f", spread),
		})
	}
	return rows
}

func (m *AppModel) View() string {
	var b strings.Builder

	title := fmt.Sprintf("curve desk · %s", m.svc.Username)
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	if m.loadErr != nil {
		b.WriteString(errorStyle.Render("failed to load Treasury curve: " + m.loadErr.Error()))
		b.WriteString("\n\n")
		b.WriteString(m.help.View(m.keys))
		return b.String()
	}
	if !m.loaded || m.result == nil {
		b.WriteString(dimStyle.Render("loading Treasury curve..."))
		return b.String()
	}

	b.WriteString(m.slopeBanner())
	b.WriteString("\n\n")

	target := "yield"
	if m.editSpread {
		target = "spread"
	}
	view := "levels"
	if m.showChange {
		view = "changes"
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf(
		"as of %s · editing %s · step %.0fbp · showing %s",
		m.result.Treasury.AsOf.Format("2006-01-02"), target, m.svc.Step*100, view,
	)))
	b.WriteString("\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(m.tbl.View()),
		panelStyle.Render(m.fitPanel()),
	))
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(errorStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *AppModel) slopeBanner() string {
	s := m.result.Slope
	text := fmt.Sprintf("%s-%s %+.2f%% · %s", s.Long, s.Short, s.SpreadPct, strings.ToUpper(s.Regime()))
	if s.Inverted {
		return invertedBanner.Render(text)
	}
	return normalBanner.Render(text)
}

func (m *AppModel) fitPanel() string {
	method := m.methods[m.methodIdx]
	out, ok := m.result.Fits[method]

	var b strings.Builder
	b.WriteString(titleStyle.Render(string(method)))
	b.WriteString("\n")
	if !ok || !out.Available {
		reason := out.Error
		if reason == "" {
			reason = "not fitted"
		}
		b.WriteString(errorStyle.Render("fit unavailable: " + reason))
		return b.String()
	}

	b.WriteString(sparkline(out.Samples))
	b.WriteString("\n")
	first, last := out.Samples[0], out.Samples[len(out.Samples)-1]
	b.WriteString(dimStyle.Render(fmt.Sprintf("%.2fY %.2f%% → %.0fY %.2f%%",
		first.Years, first.YieldPct, last.Years, last.YieldPct)))
	b.WriteString("\n\n")
	for _, line := range formatParams(out.Params) {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func sparkline(samples []curve.SamplePoint) string {
	if len(samples) == 0 {
		return ""
	}
	lo, hi := samples[0].YieldPct, samples[0].YieldPct
	for _, s := range samples {
		lo = math.Min(lo, s.YieldPct)
		hi = math.Max(hi, s.YieldPct)
	}
	out := make([]rune, len(samples))
	for i, s := range samples {
		idx := 0
		if hi > lo {
			idx = int((s.YieldPct - lo) / (hi - lo) * float64(len(sparkBlocks)-1))
		}
		out[i] = sparkBlocks[idx]
	}
	return string(out)
}

// formatParams renders the scalar fit parameters in name order.
func formatParams(params map[string]any) []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		switch v := params[name].(type) {
		case float64:
			lines = append(lines, fmt.Sprintf("%-10s %9.4f", name, v))
		case int:
			lines = append(lines, fmt.Sprintf("%-10s %9d", name, v))
		case string:
			lines = append(lines, fmt.Sprintf("%-10s %9s", name, v))
		case []float64:
			if name == "knots" {
				lines = append(lines, fmt.Sprintf("%-10s %9d", name, len(v)))
			}
		}
	}
	return lines
}

func formatBps(deltaPct float64) string {
	if deltaPct == 0 {
		return "0"
	}
	return fmt.Sprintf("%+.0f", deltaPct*100)
}

func copyDeltas(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
