package science

import (
	"context"
	"fmt"

	"soltab/internal/domain"
	"soltab/internal/numeric"
)

// StatisticsChecks look for suspicious numeric distributions.
func StatisticsChecks() []*BuiltinCheck {
	return []*BuiltinCheck{
		{
			key: "statistics.distribution", name: "Statistics: Constant And Low-Variance Columns",
			fn: func(_ context.Context, s *Subject) []domain.ValidationFlag {
				var flags []domain.ValidationFlag
				for _, c := range s.dataColumns() {
					nums, ok := numericColumn(s.Table, c)
					if !ok || len(nums) < 3 {
						continue
					}
					name := s.Table.Columns[c].Name
					if constant(nums) {
						flags = append(flags, columnFlag(domain.SeverityWarning, "constant_column", name,
							fmt.Sprintf("All values in %q are identical (%g)", name, nums[0]),
							"Verify if this is correct or an extraction error"))
					}
					mean := numeric.Mean(nums)
					if mean != 0 && numeric.StdDev(nums) < mean*0.01 {
						flags = append(flags, columnFlag(domain.SeverityInfo, "low_variance", name,
							fmt.Sprintf("Very low variance in %q", name),
							"Check if more diverse data is expected"))
					}
				}
				return flags
			},
		},
	}
}

// numericColumn returns the numbers of column c when every non-null value is numeric.
func numericColumn(t *domain.Table, c int) ([]float64, bool) {
	var out []float64
	for _, row := range t.Rows {
		switch v := row[c]; {
		case v.IsNull():
		case v.IsNumber():
			out = append(out, v.Number)
		default:
			return nil, false
		}
	}
	return out, true
}

func constant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}
