package science

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"soltab/internal/domain"
)

var (
	ocrPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[Il]{2,}`),
		regexp.MustCompile(`O{2,}`),
		regexp.MustCompile(`\d,\d`),
	}
	digitRe = regexp.MustCompile(`\d`)
)

// NumericChecks look for OCR contamination in numeric columns.
func NumericChecks() []*BuiltinCheck {
	return []*BuiltinCheck{
		{
			key: "numeric.mixed_types", name: "Numeric: Mixed Numbers And Text",
			fn: func(_ context.Context, s *Subject) []domain.ValidationFlag {
				var flags []domain.ValidationFlag
				for _, c := range labelFreeColumns(s) {
					nums, texts := 0, 0
					for _, v := range s.sample(c, sampleSize) {
						if v.IsNumber() {
							nums++
						} else {
							texts++
						}
					}
					if nums > 0 && texts > 0 && float64(texts) < float64(nums)*0.2 {
						name := s.Table.Columns[c].Name
						flags = append(flags, columnFlag(domain.SeverityCritical, "mixed_numeric_text", name,
							fmt.Sprintf("Column %q has both numbers and text", name),
							"Check for OCR errors or merged data"))
					}
				}
				return flags
			},
		},
		{
			key: "numeric.ocr_artifacts", name: "Numeric: OCR Artifacts",
			fn: func(_ context.Context, s *Subject) []domain.ValidationFlag {
				var flags []domain.ValidationFlag
				for _, c := range labelFreeColumns(s) {
					if hit := ocrArtifact(s.sample(c, sampleSize)); hit != "" {
						name := s.Table.Columns[c].Name
						flags = append(flags, columnFlag(domain.SeverityWarning, "ocr_artifacts", name,
							fmt.Sprintf("Possible OCR errors in %q (e.g. %q)", name, hit),
							"Run OCR cleaning or manually verify"))
					}
				}
				return flags
			},
		},
	}
}

// labelFreeColumns skips derived and phase columns, whose Roman numerals
// would look like OCR noise.
func labelFreeColumns(s *Subject) []int {
	var out []int
	for _, c := range s.dataColumns() {
		if t, _ := s.columnType(c); t == domain.ColumnPhase {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ocrArtifact returns the first text value that contains a digit and an
// OCR confusion pattern.
func ocrArtifact(vals []domain.Value) string {
	for _, v := range vals {
		if v.Kind != domain.KindText || !digitRe.MatchString(v.Raw) {
			continue
		}
		for _, p := range ocrPatterns {
			if p.MatchString(v.Raw) {
				return strings.TrimSpace(v.Raw)
			}
		}
	}
	return ""
}
