// Package header infers column names and types for grids that arrive with
// missing or garbled header rows.
package header

import (
	"soltab/internal/domain"
)

// Input is what every strategy sees.
type Input struct {
	Grid *domain.Grid
	// Upstream holds column types from a prior analysis pass, if any.
	Upstream []domain.ColumnTypeAssignment
}

// Guess is a strategy's proposal for one original column.
type Guess struct {
	Name       string
	Type       domain.ColumnType
	Confidence float64
}

// Candidate is a strategy's proposal for the whole grid. Columns covers the
// non-derived columns of the grid in order.
type Candidate struct {
	DropRows int
	Columns  []Guess
}

// Strategy proposes column names and types with an overall confidence.
type Strategy interface {
	Method() domain.HeaderMethod
	// Threshold is the confidence a candidate must exceed to be accepted.
	Threshold() float64
	Attempt(in *Input) (*Candidate, float64)
}

// Attempt records the outcome of one strategy.
type Attempt struct {
	Method     domain.HeaderMethod `json:"method"`
	Confidence float64             `json:"confidence"`
	Accepted   bool                `json:"accepted"`
}

// originalColumns returns the indices of non-derived columns.
func originalColumns(g *domain.Grid) []int {
	out := make([]int, 0, g.NumCols())
	for c := 0; c < g.NumCols(); c++ {
		if !g.IsDerived(c) {
			out = append(out, c)
		}
	}
	return out
}

// nonNullFrom returns up to limit non-null texts of column c starting at row from.
func nonNullFrom(g *domain.Grid, c, from, limit int) []string {
	var out []string
	for r := from; r < g.NumRows(); r++ {
		if t := g.Text(r, c); t != nil && *t != "" {
			out = append(out, *t)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}
