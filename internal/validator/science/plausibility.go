package science

import (
	"context"
	"fmt"

	"soltab/internal/domain"
)

const absoluteZero = -273.15

// rangeRule flags numbers of one column type that fall outside physical limits.
type rangeRule struct {
	types    []domain.ColumnType
	kind     string
	severity domain.Severity
	bad      func(float64) bool
	message  func(col string, v float64) string
	rec      string
}

var rangeRules = []rangeRule{
	{
		types: []domain.ColumnType{domain.ColumnTemperature}, kind: "impossible_temperature",
		severity: domain.SeverityCritical,
		bad:      func(v float64) bool { return v < absoluteZero },
		message: func(col string, v float64) string {
			return fmt.Sprintf("Temperature %g in %q is below absolute zero (-273.15°C)", v, col)
		},
		rec: "Definitely an extraction error - verify values",
	},
	{
		types: []domain.ColumnType{domain.ColumnTemperature}, kind: "unusual_temperature",
		severity: domain.SeverityWarning,
		bad:      func(v float64) bool { return v < -100 },
		message: func(col string, v float64) string {
			return fmt.Sprintf("Very low temperature %g°C in %q", v, col)
		},
		rec: "Verify if cryogenic temperatures are correct",
	},
	{
		types: []domain.ColumnType{domain.ColumnTemperature}, kind: "unusual_temperature",
		severity: domain.SeverityWarning,
		bad:      func(v float64) bool { return v > 500 },
		message: func(col string, v float64) string {
			return fmt.Sprintf("Very high temperature %g°C in %q", v, col)
		},
		rec: "Verify if high-temperature data is correct",
	},
	{
		types: []domain.ColumnType{domain.ColumnMassPercent, domain.ColumnMolePercent}, kind: "impossible_percentage",
		severity: domain.SeverityCritical,
		bad:      func(v float64) bool { return v < 0 || v > 100 },
		message: func(col string, v float64) string {
			return fmt.Sprintf("Percentage %g in %q outside 0-100%%", v, col)
		},
		rec: "Likely decimal point error - verify",
	},
	{
		types: []domain.ColumnType{domain.ColumnPH}, kind: "impossible_ph",
		severity: domain.SeverityCritical,
		bad:      func(v float64) bool { return v < 0 || v > 14 },
		message: func(col string, v float64) string {
			return fmt.Sprintf("pH %g in %q outside 0-14", v, col)
		},
		rec: "Verify pH values",
	},
	{
		types: []domain.ColumnType{domain.ColumnMolality}, kind: "negative_molality",
		severity: domain.SeverityCritical,
		bad:      func(v float64) bool { return v < 0 },
		message: func(col string, v float64) string {
			return fmt.Sprintf("Negative molality %g in %q", v, col)
		},
		rec: "Molality cannot be negative - verify",
	},
	{
		types: []domain.ColumnType{domain.ColumnDensity}, kind: "impossible_density",
		severity: domain.SeverityCritical,
		bad:      func(v float64) bool { return v <= 0 },
		message: func(col string, v float64) string {
			return fmt.Sprintf("Non-positive density %g in %q", v, col)
		},
		rec: "Density must be positive - verify",
	},
}

func (r rangeRule) applies(t domain.ColumnType) bool {
	for _, x := range r.types {
		if x == t {
			return true
		}
	}
	return false
}

// PlausibilityChecks apply physical limits keyed by detected column type.
// Columns whose type confidence is below the threshold are not judged.
func PlausibilityChecks(th Thresholds) []*BuiltinCheck {
	return []*BuiltinCheck{
		{
			key: "plausibility.ranges", name: "Plausibility: Physical Ranges",
			fn: func(_ context.Context, s *Subject) []domain.ValidationFlag {
				var flags []domain.ValidationFlag
				for _, c := range s.dataColumns() {
					t, conf := s.columnType(c)
					if conf <= th.MinTypeConfidence {
						continue
					}
					name := s.Table.Columns[c].Name
					for _, rule := range rangeRules {
						if !rule.applies(t) {
							continue
						}
						for r, row := range s.Table.Rows {
							v := row[c]
							if !v.IsNumber() || !rule.bad(v.Number) {
								continue
							}
							f := columnFlag(rule.severity, rule.kind, name, rule.message(name, v.Number), rule.rec)
							idx := r
							f.Row = &idx
							flags = append(flags, f)
							break
						}
					}
				}
				return flags
			},
		},
		{
			key: "plausibility.mass_balance", name: "Plausibility: Mass Balance",
			fn: func(_ context.Context, s *Subject) []domain.ValidationFlag {
				var massCols []int
				for _, c := range s.dataColumns() {
					if t, conf := s.columnType(c); t == domain.ColumnMassPercent && conf > th.MinTypeConfidence {
						massCols = append(massCols, c)
					}
				}
				if len(massCols) < 2 {
					return nil
				}
				rows, outside := 0, 0
				for _, row := range s.Table.Rows {
					sum, n := 0.0, 0
					for _, c := range massCols {
						if row[c].IsNumber() {
							sum += row[c].Number
							n++
						}
					}
					if n < 2 {
						continue
					}
					rows++
					if sum < th.MassBalanceLow || sum > th.MassBalanceHigh {
						outside++
					}
				}
				if rows == 0 || float64(outside) <= float64(rows)*th.MassBalanceMaxOutside {
					return nil
				}
				return []domain.ValidationFlag{flag(domain.SeverityWarning, "mass_balance_error",
					fmt.Sprintf("%d of %d rows where mass%% does not sum to %g-%g", outside, rows, th.MassBalanceLow, th.MassBalanceHigh),
					"Verify composition data or check if columns are missing")}
			},
		},
	}
}
