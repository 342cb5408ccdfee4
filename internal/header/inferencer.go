package header

import (
	"go.uber.org/zap"

	"soltab/internal/domain"
)

// Default acceptance thresholds.
const (
	DefaultHeaderRowThreshold       = 0.7
	DefaultTypePropagationThreshold = 0.6
	DefaultDataPatternThreshold     = 0.5
)

// derivedConfidence is assigned to pipeline-produced phase columns.
const derivedConfidence = 1.0

// Result is the outcome of header inference.
type Result struct {
	Grid        *domain.Grid
	Assignments []domain.ColumnTypeAssignment
	Method      domain.HeaderMethod
	Confidence  float64
	Attempts    []Attempt
}

// Inferencer evaluates strategies in order and keeps the first accepted one.
type Inferencer struct {
	strategies []Strategy
	logger     *zap.Logger
}

// NewInferencer creates an Inferencer over strategies. The fallback strategy
// is appended when missing so inference always succeeds.
func NewInferencer(logger *zap.Logger, strategies ...Strategy) *Inferencer {
	if logger == nil {
		logger = zap.NewNop()
	}
	hasFallback := false
	for _, s := range strategies {
		if s.Method() == domain.HeaderMethodFallback {
			hasFallback = true
		}
	}
	if !hasFallback {
		strategies = append(strategies, FallbackStrategy{})
	}
	return &Inferencer{strategies: strategies, logger: logger}
}

// DefaultInferencer uses the standard strategy chain and thresholds.
func DefaultInferencer(logger *zap.Logger) *Inferencer {
	return NewInferencer(logger,
		NewHeaderRowStrategy(DefaultHeaderRowThreshold),
		NewTypePropagationStrategy(DefaultTypePropagationThreshold),
		NewDataPatternStrategy(DefaultDataPatternThreshold),
		FallbackStrategy{},
	)
}

// Infer names and types every column of in.Grid.
func (inf *Inferencer) Infer(in *Input) *Result {
	var attempts []Attempt
	for _, s := range inf.strategies {
		cand, conf := s.Attempt(in)
		accepted := cand != nil && conf > s.Threshold()
		attempts = append(attempts, Attempt{Method: s.Method(), Confidence: conf, Accepted: accepted})
		if !accepted {
			continue
		}
		res := inf.apply(in.Grid, cand)
		res.Method = s.Method()
		res.Confidence = conf
		res.Attempts = attempts
		inf.logger.Debug("header.Inferencer: accepted strategy",
			zap.String("table", in.Grid.Provenance.Label()),
			zap.String("method", string(s.Method())),
			zap.Float64("confidence", conf),
		)
		return res
	}
	// unreachable: fallback always accepts
	return &Result{Grid: in.Grid, Method: domain.HeaderMethodFallback, Attempts: attempts}
}

func (inf *Inferencer) apply(g *domain.Grid, cand *Candidate) *Result {
	cols := originalColumns(g)
	guesses := make(map[int]Guess, len(cand.Columns))
	for i, c := range cols {
		if i < len(cand.Columns) {
			guesses[c] = cand.Columns[i]
		}
	}

	base := make([]string, len(cols))
	for i, c := range cols {
		base[i] = guesses[c].Name
	}
	base = MakeUnique(base)

	names := make([]string, g.NumCols())
	for i, c := range cols {
		names[c] = base[i]
	}
	// derived names follow their parent's final name
	for c := 0; c < g.NumCols(); c++ {
		if g.IsDerived(c) {
			names[c] = names[g.DerivedFrom(c)] + "_phase"
		}
	}
	names = MakeUnique(names)

	assignments := make([]domain.ColumnTypeAssignment, g.NumCols())
	for c := 0; c < g.NumCols(); c++ {
		a := domain.ColumnTypeAssignment{
			Index:            c,
			OriginalName:     g.ColumnName(c),
			StandardizedName: names[c],
		}
		if g.IsDerived(c) {
			a.DetectedType = domain.ColumnPhase
			a.Confidence = derivedConfidence
			a.Derived = true
		} else {
			a.DetectedType = guesses[c].Type
			a.Confidence = guesses[c].Confidence
			a.Unit = a.DetectedType.Unit()
		}
		assignments[c] = a
	}

	out := g.DropLeadingRows(cand.DropRows)
	if renamed, err := out.WithHeader(names); err == nil {
		out = renamed
	}
	return &Result{Grid: out, Assignments: assignments}
}
