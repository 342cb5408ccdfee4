package header

import (
	"fmt"

	"soltab/internal/domain"
	"soltab/internal/numeric"
	"soltab/internal/phase"
)

const unknownTypeConfidence = 0.3

// TypePropagationStrategy names columns after types found by an earlier
// analysis pass.
type TypePropagationStrategy struct {
	threshold float64
}

func NewTypePropagationStrategy(threshold float64) *TypePropagationStrategy {
	return &TypePropagationStrategy{threshold: threshold}
}

func (s *TypePropagationStrategy) Method() domain.HeaderMethod {
	return domain.HeaderMethodTypePropagation
}
func (s *TypePropagationStrategy) Threshold() float64 { return s.threshold }

func (s *TypePropagationStrategy) Attempt(in *Input) (*Candidate, float64) {
	if len(in.Upstream) == 0 {
		return nil, 0
	}
	known := make(map[int]domain.ColumnTypeAssignment, len(in.Upstream))
	for _, a := range in.Upstream {
		known[a.Index] = a
	}

	cols := originalColumns(in.Grid)
	cand := &Candidate{Columns: make([]Guess, len(cols))}
	confs := make([]float64, len(cols))
	for i, c := range cols {
		a, ok := known[c]
		if !ok || a.DetectedType == "" {
			cand.Columns[i] = Guess{
				Name:       fmt.Sprintf("Column_%d", c),
				Type:       plainType(in.Grid.NonNull(c, sampleSize)),
				Confidence: unknownTypeConfidence,
			}
			confs[i] = unknownTypeConfidence
			continue
		}
		cand.Columns[i] = Guess{Name: DisplayName(a.DetectedType, c), Type: a.DetectedType, Confidence: a.Confidence}
		confs[i] = a.Confidence
	}
	return cand, mean(confs)
}

// DataPatternStrategy infers types from the values alone. Rules are tried in
// a fixed priority order per column.
type DataPatternStrategy struct {
	threshold float64
}

func NewDataPatternStrategy(threshold float64) *DataPatternStrategy {
	return &DataPatternStrategy{threshold: threshold}
}

func (s *DataPatternStrategy) Method() domain.HeaderMethod { return domain.HeaderMethodDataPattern }
func (s *DataPatternStrategy) Threshold() float64          { return s.threshold }

// mostly is the share of sampled values a range rule needs.
const mostly = 0.8

func (s *DataPatternStrategy) Attempt(in *Input) (*Candidate, float64) {
	cols := originalColumns(in.Grid)
	if len(cols) == 0 {
		return nil, 0
	}
	cand := &Candidate{Columns: make([]Guess, len(cols))}
	confs := make([]float64, len(cols))
	for i, c := range cols {
		g := inferFromValues(in.Grid.NonNull(c, sampleSize), c)
		cand.Columns[i] = g
		confs[i] = g.Confidence
	}
	return cand, mean(confs)
}

func inferFromValues(sample []string, idx int) Guess {
	if len(sample) == 0 {
		return Guess{Name: fmt.Sprintf("Empty_%d", idx), Type: domain.ColumnText, Confidence: 0.1}
	}
	guess := func(t domain.ColumnType, conf float64) Guess {
		return Guess{Name: DisplayName(t, idx), Type: t, Confidence: conf}
	}
	anyMatch := func(pred func(string) bool) bool {
		for _, v := range sample {
			if pred(v) {
				return true
			}
		}
		return false
	}

	switch {
	case anyMatch(degreeRe.MatchString) || numeric.FractionInRange(sample, -100, 500) >= mostly:
		return guess(domain.ColumnTemperature, 0.8)
	case anyMatch(percentRe.MatchString) || numeric.FractionInRange(sample, 0, 100) >= mostly:
		return guess(domain.ColumnMassPercent, 0.75)
	case numeric.FractionInRange(sample, 0, 14) >= mostly:
		return guess(domain.ColumnPH, 0.7)
	case allLabels(sample):
		return guess(domain.ColumnPhase, 0.85)
	case numeric.FractionInRange(sample, 0, 9.999999) >= mostly:
		return guess(domain.ColumnMolality, 0.6)
	case numericShare(sample) >= mostly:
		return guess(domain.ColumnNumeric, 0.5)
	default:
		return guess(domain.ColumnText, 0.4)
	}
}

func allLabels(sample []string) bool {
	for _, v := range sample {
		if !phase.IsLabel(v) {
			return false
		}
	}
	return len(sample) > 0
}

func numericShare(sample []string) float64 {
	if len(sample) == 0 {
		return 0
	}
	return float64(len(numeric.ParseAll(sample))) / float64(len(sample))
}

func plainType(sample []string) domain.ColumnType {
	if len(sample) > 0 && numericShare(sample) >= mostly {
		return domain.ColumnNumeric
	}
	return domain.ColumnText
}

// FallbackStrategy always succeeds with placeholder names.
type FallbackStrategy struct{}

func (FallbackStrategy) Method() domain.HeaderMethod { return domain.HeaderMethodFallback }
func (FallbackStrategy) Threshold() float64          { return -1 }

func (FallbackStrategy) Attempt(in *Input) (*Candidate, float64) {
	cols := originalColumns(in.Grid)
	cand := &Candidate{Columns: make([]Guess, len(cols))}
	for i, c := range cols {
		name := in.Grid.ColumnName(c)
		if isPositional(name) {
			name = Placeholder(i)
		}
		cand.Columns[i] = Guess{
			Name:       cleanName(name),
			Type:       plainType(in.Grid.NonNull(c, sampleSize)),
			Confidence: unknownTypeConfidence,
		}
	}
	return cand, unknownTypeConfidence
}
