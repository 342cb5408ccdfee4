package science

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"soltab/internal/domain"
)

// AgreementChecks report on the multi-method extraction behind the table.
func AgreementChecks() []*BuiltinCheck {
	return []*BuiltinCheck{
		{
			key: "agreement.consensus", name: "Agreement: Extraction Methods",
			fn: func(_ context.Context, s *Subject) []domain.ValidationFlag {
				res := s.Consensus
				switch {
				case res == nil:
					return nil
				case res.NoExtraction:
					failed := make([]string, 0, len(res.Failures))
					for m := range res.Failures {
						failed = append(failed, m)
					}
					sort.Strings(failed)
					return []domain.ValidationFlag{flag(domain.SeverityCritical, "no_extraction",
						fmt.Sprintf("No extraction method produced a table (failed: %s)", strings.Join(failed, ", ")),
						"Extract the table manually from the PDF")}
				case res.NeedsReview:
					return []domain.ValidationFlag{flag(domain.SeverityWarning, "low_extraction_agreement",
						fmt.Sprintf("Extraction methods agree on %.1f%% of cells with %d discrepancies",
							res.Agreement*100, len(res.Discrepancies)),
						"Compare the disagreeing cells against the PDF")}
				}
				return nil
			},
		},
	}
}
