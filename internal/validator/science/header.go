package science

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"soltab/internal/domain"
)

var (
	genericNameRe = regexp.MustCompile(`^(Column_[A-Z0-9]+|Data_\d+|Text_\d+|Empty_\d+|Unnamed.*|\d.*)$`)
	unitNameRe    = regexp.MustCompile(`\(.*\)|%|°`)
)

// HeaderChecks inspect the inferred column names.
func HeaderChecks(th Thresholds) []*BuiltinCheck {
	return []*BuiltinCheck{
		{
			key: "header.confidence", name: "Header: Confidence",
			fn: func(_ context.Context, s *Subject) []domain.ValidationFlag {
				if s.HeaderConfidence >= th.MinHeaderConfidence {
					return nil
				}
				return []domain.ValidationFlag{flag(domain.SeverityCritical, "low_header_confidence",
					fmt.Sprintf("Header confidence only %.1f%%", s.HeaderConfidence*100),
					"Verify all column names against the PDF")}
			},
		},
		{
			key: "header.generic_names", name: "Header: Generic Names",
			fn: func(_ context.Context, s *Subject) []domain.ValidationFlag {
				var generic []string
				for _, c := range s.dataColumns() {
					if genericNameRe.MatchString(s.Table.Columns[c].Name) {
						generic = append(generic, s.Table.Columns[c].Name)
					}
				}
				if len(generic) == 0 {
					return nil
				}
				return []domain.ValidationFlag{flag(domain.SeverityWarning, "generic_headers",
					fmt.Sprintf("%d columns have generic names: %s", len(generic), strings.Join(generic, ", ")),
					"Assign meaningful column names from the PDF")}
			},
		},
		{
			key: "header.units", name: "Header: Missing Units",
			fn: func(_ context.Context, s *Subject) []domain.ValidationFlag {
				numericCols, missing := 0, 0
				for _, c := range s.dataColumns() {
					if !mostlyNumeric(s.sample(c, sampleSize)) {
						continue
					}
					numericCols++
					if !unitNameRe.MatchString(s.Table.Columns[c].Name) && s.Table.Columns[c].Unit == "" {
						missing++
					}
				}
				if missing == 0 || float64(missing) <= float64(numericCols)*0.5 {
					return nil
				}
				return []domain.ValidationFlag{flag(domain.SeverityInfo, "missing_units",
					fmt.Sprintf("%d columns missing units in headers", missing),
					"Add units (°C, %, mol/kg) to headers")}
			},
		},
	}
}

// mostlyNumeric reports whether at least half of the sampled values are numbers.
func mostlyNumeric(vals []domain.Value) bool {
	if len(vals) == 0 {
		return false
	}
	n := 0
	for _, v := range vals {
		if v.IsNumber() {
			n++
		}
	}
	return n*2 >= len(vals)
}
