// Package validator runs the scientific checks on a typed table and turns
// their flags into a quality score and review priority.
package validator

import (
	"context"

	"go.uber.org/zap"

	"soltab/internal/domain"
	"soltab/internal/validator/science"
)

// Score deductions per flag severity.
const (
	criticalPenalty = 15
	warningPenalty  = 5
	infoPenalty     = 1
)

// Report is the outcome of validating one table.
type Report struct {
	Flags       []domain.ValidationFlag `json:"flags"`
	Score       int                     `json:"score"`
	Priority    domain.Priority         `json:"priority"`
	NeedsReview bool                    `json:"needs_review"`
	Critical    int                     `json:"critical"`
	Warnings    int                     `json:"warnings"`
	Info        int                     `json:"info"`
}

// Engine runs every registered check against a table.
type Engine struct {
	registry *Registry
	logger   *zap.Logger
}

// NewEngine creates a new validation engine.
func NewEngine(registry *Registry, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{registry: registry, logger: logger}
}

// Validate runs all checks. Checks are independent and their flags accumulate;
// a panicking check is logged and skipped so one bad table never stops a batch.
func (e *Engine) Validate(ctx context.Context, s *science.Subject) *Report {
	var flags []domain.ValidationFlag
	if s.Table == nil {
		s.Table = &domain.Table{}
	}
	for _, c := range e.registry.All() {
		flags = append(flags, e.run(ctx, c, s)...)
	}
	r := NewReport(flags)
	e.logger.Debug("validator.Engine: table validated",
		zap.String("table", s.Table.Provenance.Label()),
		zap.Int("score", r.Score),
		zap.String("priority", string(r.Priority)),
		zap.Int("critical", r.Critical),
		zap.Int("warnings", r.Warnings),
	)
	return r
}

func (e *Engine) run(ctx context.Context, c Check, s *science.Subject) (flags []domain.ValidationFlag) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("validator.Engine: check panicked",
				zap.String("check", c.CheckKey()),
				zap.String("table", s.Table.Provenance.Label()),
				zap.Any("panic", rec),
			)
			flags = nil
		}
	}()
	return c.Check(ctx, s)
}

// NewReport scores a flag list.
func NewReport(flags []domain.ValidationFlag) *Report {
	critical, warnings, info := Count(flags)
	return &Report{
		Flags:       flags,
		Score:       Score(flags),
		Priority:    PriorityFor(flags),
		NeedsReview: NeedsReview(flags),
		Critical:    critical,
		Warnings:    warnings,
		Info:        info,
	}
}

// Count tallies flags by severity.
func Count(flags []domain.ValidationFlag) (critical, warnings, info int) {
	for _, f := range flags {
		switch f.Severity {
		case domain.SeverityCritical:
			critical++
		case domain.SeverityWarning:
			warnings++
		case domain.SeverityInfo:
			info++
		}
	}
	return critical, warnings, info
}

// Score starts at 100 and deducts per flag, clamped to [0, 100].
func Score(flags []domain.ValidationFlag) int {
	critical, warnings, info := Count(flags)
	score := 100 - criticalPenalty*critical - warningPenalty*warnings - infoPenalty*info
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}

// PriorityFor ranks a flag list for human review.
func PriorityFor(flags []domain.ValidationFlag) domain.Priority {
	critical, warnings, info := Count(flags)
	switch {
	case critical > 0:
		return domain.PriorityMustReview
	case warnings > 2:
		return domain.PriorityShouldReview
	case warnings > 0:
		return domain.PriorityRecommended
	case info > 0:
		return domain.PriorityOptional
	}
	return domain.PriorityPassed
}

// NeedsReview is true with any critical flag or more than two warnings.
func NeedsReview(flags []domain.ValidationFlag) bool {
	critical, warnings, _ := Count(flags)
	return critical > 0 || warnings > 2
}
