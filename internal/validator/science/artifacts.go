package science

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"soltab/internal/domain"
)

// ArtifactChecks look for table-segmentation and encoding errors.
func ArtifactChecks(th Thresholds) []*BuiltinCheck {
	return []*BuiltinCheck{
		{
			key: "artifacts.duplicates", name: "Artifacts: Duplicate Rows",
			fn: func(_ context.Context, s *Subject) []domain.ValidationFlag {
				n := s.Table.NumRows()
				if n == 0 {
					return nil
				}
				dups := duplicateRows(s.Table)
				switch {
				case float64(dups) > float64(n)*0.1:
					return []domain.ValidationFlag{flag(domain.SeverityCritical, "excessive_duplicates",
						fmt.Sprintf("%d duplicate rows (%.1f%%)", dups, float64(dups)/float64(n)*100),
						"Likely duplicate extraction - check PDF page boundaries")}
				case dups > 2:
					return []domain.ValidationFlag{flag(domain.SeverityWarning, "some_duplicates",
						fmt.Sprintf("%d duplicate rows", dups),
						"Verify if duplicates are legitimate or extraction errors")}
				}
				return nil
			},
		},
		{
			key: "artifacts.column_count", name: "Artifacts: Column Count",
			fn: func(_ context.Context, s *Subject) []domain.ValidationFlag {
				n := len(s.dataColumns())
				switch {
				case n > th.MaxColumns:
					return []domain.ValidationFlag{flag(domain.SeverityWarning, "many_columns",
						fmt.Sprintf("%d columns (unusually wide table)", n),
						"Check if columns were incorrectly split")}
				case n < 2:
					return []domain.ValidationFlag{flag(domain.SeverityCritical, "too_few_columns",
						fmt.Sprintf("Only %d column(s)", n),
						"Likely extraction failure - re-extract table")}
				}
				return nil
			},
		},
		{
			key: "artifacts.non_ascii", name: "Artifacts: Non-ASCII Characters",
			fn: func(_ context.Context, s *Subject) []domain.ValidationFlag {
				var flags []domain.ValidationFlag
				for _, c := range s.dataColumns() {
					vals := s.sample(c, sampleSize)
					var examples []string
					for _, v := range vals {
						if v.Kind == domain.KindText && !isASCII(v.Raw) {
							examples = append(examples, v.Raw)
						}
					}
					if len(examples) == 0 || float64(len(examples)) <= float64(len(vals))*0.1 {
						continue
					}
					if len(examples) > 3 {
						examples = examples[:3]
					}
					name := s.Table.Columns[c].Name
					flags = append(flags, columnFlag(domain.SeverityWarning, "non_ascii_characters", name,
						fmt.Sprintf("Column %q has non-ASCII characters: %s", name, strings.Join(examples, ", ")),
						"Check for special characters or encoding issues"))
				}
				return flags
			},
		},
	}
}

// duplicateRows counts rows identical to an earlier row.
func duplicateRows(t *domain.Table) int {
	seen := make(map[string]bool, len(t.Rows))
	dups := 0
	var b strings.Builder
	for _, row := range t.Rows {
		b.Reset()
		for _, v := range row {
			if v.IsNull() {
				b.WriteString("\x00null")
			} else {
				b.WriteString(v.String())
			}
			b.WriteByte(0x1f)
		}
		key := b.String()
		if seen[key] {
			dups++
			continue
		}
		seen[key] = true
	}
	return dups
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
