package science

import (
	"context"
	"fmt"
	"strings"

	"soltab/internal/domain"
)

// CompletenessChecks look for missing data.
func CompletenessChecks() []*BuiltinCheck {
	return []*BuiltinCheck{
		{
			key: "completeness.null_rate", name: "Completeness: Null Rate",
			fn: func(_ context.Context, s *Subject) []domain.ValidationFlag {
				cols := s.dataColumns()
				total := len(cols) * s.Table.NumRows()
				if total == 0 {
					return nil
				}
				nulls := 0
				for _, row := range s.Table.Rows {
					for _, c := range cols {
						if row[c].IsNull() {
							nulls++
						}
					}
				}
				rate := float64(nulls) / float64(total)
				msg := fmt.Sprintf("%.1f%% of cells are empty", rate*100)
				switch {
				case rate > 0.5:
					return []domain.ValidationFlag{flag(domain.SeverityCritical, "high_null_rate", msg,
						"Check if the table was split across pages or extraction failed")}
				case rate > 0.3:
					return []domain.ValidationFlag{flag(domain.SeverityWarning, "moderate_null_rate", msg,
						"Verify whether nulls are sparse data or extraction errors")}
				}
				return nil
			},
		},
		{
			key: "completeness.empty_columns", name: "Completeness: Empty Columns",
			fn: func(_ context.Context, s *Subject) []domain.ValidationFlag {
				if s.Table.NumRows() == 0 {
					return nil
				}
				var empty []string
				for _, c := range s.dataColumns() {
					if len(s.sample(c, 1)) == 0 {
						empty = append(empty, s.Table.Columns[c].Name)
					}
				}
				if len(empty) == 0 {
					return nil
				}
				return []domain.ValidationFlag{flag(domain.SeverityWarning, "empty_columns",
					fmt.Sprintf("%d columns are completely empty: %s", len(empty), strings.Join(empty, ", ")),
					"Remove empty columns or verify extraction")}
			},
		},
		{
			key: "completeness.rows", name: "Completeness: Row Count",
			fn: func(_ context.Context, s *Subject) []domain.ValidationFlag {
				n := s.Table.NumRows()
				switch {
				case n == 0:
					return []domain.ValidationFlag{flag(domain.SeverityCritical, "empty_table",
						"Table has no data rows", "Re-extract the table from the PDF")}
				case n < 3:
					return []domain.ValidationFlag{flag(domain.SeverityInfo, "small_table",
						fmt.Sprintf("Only %d rows - quick to verify manually", n),
						"Manually verify all cells")}
				}
				return nil
			},
		},
	}
}
