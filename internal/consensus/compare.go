package consensus

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"soltab/internal/domain"
	"soltab/internal/numeric"
)

// shapeMismatchAgreement is the fixed agreement of grids with different shapes.
const shapeMismatchAgreement = 0.5

// Compare scores how closely two extractions of the same table agree.
// The score is symmetric in its arguments.
func Compare(a, b Extraction, tolerance float64) (domain.PairAgreement, []domain.Discrepancy) {
	pair := domain.PairAgreement{MethodA: a.Method, MethodB: b.Method}
	ra, ca := a.Grid.Shape()
	rb, cb := b.Grid.Shape()

	if ra != rb || ca != cb {
		pair.Agreement = shapeMismatchAgreement
		return pair, []domain.Discrepancy{{
			Type:    domain.DiscrepancyShape,
			MethodA: a.Method,
			MethodB: b.Method,
			ShapeA:  [2]int{ra, ca},
			ShapeB:  [2]int{rb, cb},
		}}
	}

	total := ra * ca
	if total == 0 {
		pair.Agreement = 1
		return pair, nil
	}

	var diffs []domain.Discrepancy
	matches := 0
	for r := 0; r < ra; r++ {
		for c := 0; c < ca; c++ {
			x, y := a.Grid.Text(r, c), b.Grid.Text(r, c)
			if ValuesMatch(x, y, tolerance) {
				matches++
				continue
			}
			diffs = append(diffs, domain.Discrepancy{
				Type:       domain.DiscrepancyValue,
				MethodA:    a.Method,
				MethodB:    b.Method,
				Row:        r,
				Col:        c,
				ValueA:     deref(x),
				ValueB:     deref(y),
				Similarity: Similarity(deref(x), deref(y)),
			})
		}
	}
	pair.Agreement = float64(matches) / float64(total)
	return pair, diffs
}

// ValuesMatch reports whether two cells say the same thing: both null, both
// numbers within tolerance, or equal text ignoring case and surrounding space.
func ValuesMatch(x, y *string, tolerance float64) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	fx, okx := numeric.Parse(*x)
	fy, oky := numeric.Parse(*y)
	if okx && oky {
		return math.Abs(fx-fy) <= tolerance
	}
	return strings.EqualFold(strings.TrimSpace(*x), strings.TrimSpace(*y))
}

// Similarity is a normalized edit-distance ratio in [0, 1].
func Similarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
