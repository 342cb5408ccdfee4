// Package science holds the scientific-plausibility checks run on every
// typed table.
package science

import (
	"context"

	"soltab/internal/domain"
)

// BuiltinCheck wraps a check function and its metadata for the registry.
type BuiltinCheck struct {
	key  string
	name string
	fn   func(context.Context, *Subject) []domain.ValidationFlag
}

func (b *BuiltinCheck) Check(ctx context.Context, s *Subject) []domain.ValidationFlag {
	return b.fn(ctx, s)
}
func (b *BuiltinCheck) CheckKey() string  { return b.key }
func (b *BuiltinCheck) CheckName() string { return b.name }

// AllBuiltinChecks returns every check in the order it reports.
func AllBuiltinChecks(th Thresholds) []*BuiltinCheck {
	groups := [][]*BuiltinCheck{
		HeaderChecks(th),
		CompletenessChecks(),
		NumericChecks(),
		PlausibilityChecks(th),
		ArtifactChecks(th),
		StatisticsChecks(),
		AgreementChecks(),
	}
	var all []*BuiltinCheck
	for _, g := range groups {
		all = append(all, g...)
	}
	return all
}
