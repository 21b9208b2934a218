package domain

import (
	"fmt"
	"math"
	"sort"
)

// MaturityPoint is a single tenor on the maturity grid.
type MaturityPoint struct {
	Label string  `json:"label"`
	Years float64 `json:"years"`
}

// Grid is an ordered set of maturities with strictly increasing years.
// It is the common x-axis for every curve.
type Grid struct {
	points []MaturityPoint
	index  map[string]int
}

// NewGrid validates the points and returns an immutable grid.
func NewGrid(points ...MaturityPoint) (*Grid, error) {
	if len(points) == 0 {
		return nil, &InvalidValueError{Field: "grid", Reason: "no maturities"}
	}
	g := &Grid{
		points: make([]MaturityPoint, len(points)),
		index:  make(map[string]int, len(points)),
	}
	copy(g.points, points)
	for i, p := range g.points {
		if p.Label == "" {
			return nil, &InvalidValueError{Field: "grid", Reason: fmt.Sprintf("empty label at position %d", i)}
		}
		if math.IsNaN(p.Years) || math.IsInf(p.Years, 0) || p.Years <= 0 {
			return nil, &InvalidValueError{Field: p.Label, Value: p.Years, Reason: "maturity must be positive and finite"}
		}
		if _, dup := g.index[p.Label]; dup {
			return nil, &InvalidValueError{Field: p.Label, Reason: "duplicate maturity label"}
		}
		if i > 0 && p.Years <= g.points[i-1].Years {
			return nil, &InvalidValueError{Field: p.Label, Value: p.Years, Reason: "maturities must be strictly increasing"}
		}
		g.index[p.Label] = i
	}
	return g, nil
}

func mustGrid(points ...MaturityPoint) *Grid {
	g, err := NewGrid(points...)
	if err != nil {
		panic(err)
	}
	return g
}

// DefaultGrid is the published Treasury constant-maturity set.
var DefaultGrid = mustGrid(
	MaturityPoint{Label: "3M", Years: 0.25},
	MaturityPoint{Label: "6M", Years: 0.5},
	MaturityPoint{Label: "1Y", Years: 1},
	MaturityPoint{Label: "2Y", Years: 2},
	MaturityPoint{Label: "3Y", Years: 3},
	MaturityPoint{Label: "5Y", Years: 5},
	MaturityPoint{Label: "7Y", Years: 7},
	MaturityPoint{Label: "10Y", Years: 10},
	MaturityPoint{Label: "20Y", Years: 20},
	MaturityPoint{Label: "30Y", Years: 30},
)

// FREDSeriesID maps grid labels to FRED constant-maturity series.
var FREDSeriesID = map[string]string{
	"3M":  "DGS3MO",
	"6M":  "DGS6MO",
	"1Y":  "DGS1",
	"2Y":  "DGS2",
	"3Y":  "DGS3",
	"5Y":  "DGS5",
	"7Y":  "DGS7",
	"10Y": "DGS10",
	"20Y": "DGS20",
	"30Y": "DGS30",
}

// Len returns the number of maturities.
func (g *Grid) Len() int { return len(g.points) }

// Points returns a copy of the grid points in order.
func (g *Grid) Points() []MaturityPoint {
	out := make([]MaturityPoint, len(g.points))
	copy(out, g.points)
	return out
}

// At returns the i-th maturity.
func (g *Grid) At(i int) MaturityPoint { return g.points[i] }

// Index returns the position of label, or -1.
func (g *Grid) Index(label string) int {
	if i, ok := g.index[label]; ok {
		return i
	}
	return -1
}

// Lookup returns the maturity for label.
func (g *Grid) Lookup(label string) (MaturityPoint, bool) {
	i, ok := g.index[label]
	if !ok {
		return MaturityPoint{}, false
	}
	return g.points[i], true
}

func (g *Grid) Labels() []string {
	out := make([]string, len(g.points))
	for i, p := range g.points {
		out[i] = p.Label
	}
	return out
}

func (g *Grid) Years() []float64 {
	out := make([]float64, len(g.points))
	for i, p := range g.points {
		out[i] = p.Years
	}
	return out
}

// SortLabels orders labels by their position on the grid. Unknown labels sort last.
func (g *Grid) SortLabels(labels []string) {
	sort.SliceStable(labels, func(i, j int) bool {
		a, b := g.Index(labels[i]), g.Index(labels[j])
		if a < 0 {
			return false
		}
		if b < 0 {
			return true
		}
		return a < b
	})
}
