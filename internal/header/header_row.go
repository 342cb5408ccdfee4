package header

import (
	"strings"

	"soltab/internal/domain"
	"soltab/internal/numeric"
)

// maxHeaderRows bounds how many stacked header rows are merged.
const maxHeaderRows = 3

// HeaderRowStrategy promotes leading rows that look like column titles.
type HeaderRowStrategy struct {
	threshold float64
}

func NewHeaderRowStrategy(threshold float64) *HeaderRowStrategy {
	return &HeaderRowStrategy{threshold: threshold}
}

func (s *HeaderRowStrategy) Method() domain.HeaderMethod { return domain.HeaderMethodHeaderRow }
func (s *HeaderRowStrategy) Threshold() float64          { return s.threshold }

func (s *HeaderRowStrategy) Attempt(in *Input) (*Candidate, float64) {
	g := in.Grid
	if g.NumRows() < 2 {
		return nil, 0
	}
	cols := originalColumns(g)
	conf := rowScore(g, 0, cols)
	if conf <= s.threshold {
		return nil, conf
	}

	// Booklet tables often stack the component name above the unit row.
	rows := 1
	for rows < maxHeaderRows && rows < g.NumRows()-1 && rowScore(g, rows, cols) > s.threshold {
		rows++
	}

	cand := &Candidate{DropRows: rows, Columns: make([]Guess, len(cols))}
	for i, c := range cols {
		var parts []string
		for r := 0; r < rows; r++ {
			if t := g.Text(r, c); t != nil && strings.TrimSpace(*t) != "" {
				parts = append(parts, strings.TrimSpace(*t))
			}
		}
		name := cleanName(strings.Join(parts, " "))
		typ, tc := Classify(name, nonNullFrom(g, c, rows, sampleSize))
		if name == "" {
			name = DisplayName(typ, c)
		}
		cand.Columns[i] = Guess{Name: name, Type: typ, Confidence: tc}
	}
	return cand, conf
}

// rowScore rates how much row r looks like a header: +1 per short
// non-numeric text cell, +0.5 per cell naming a known quantity, divided by the
// number of non-null cells and capped at 1.
func rowScore(g *domain.Grid, r int, cols []int) float64 {
	total := 0
	score := 0.0
	for _, c := range cols {
		t := g.Text(r, c)
		if t == nil || strings.TrimSpace(*t) == "" {
			continue
		}
		total++
		text := strings.TrimSpace(*t)
		if len(text) < 30 && !numeric.IsNumber(text) {
			score++
		}
		if containsKeyword(text) {
			score += 0.5
		}
	}
	if total == 0 {
		return 0
	}
	if v := score / float64(total); v < 1 {
		return v
	}
	return 1
}
