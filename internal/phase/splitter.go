package phase

import (
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"soltab/internal/domain"
	"soltab/internal/normalize"
)

// DefaultSampleSize is how many non-null cells decide whether a column
// carries phase suffixes.
const DefaultSampleSize = 10

// Summary reports what a Process call split.
type Summary struct {
	ColumnsSplit []string            `json:"columns_split"`
	CellsSplit   int                 `json:"cells_split"`
	PhasesFound  []domain.PhaseLabel `json:"phases_found"`
}

// Splitter runs the combined normalize-and-split pass over grids.
type Splitter struct {
	normalizer *normalize.Normalizer
	sampleSize int
	logger     *zap.Logger
}

// NewSplitter creates a Splitter. A sampleSize <= 0 uses DefaultSampleSize.
func NewSplitter(n *normalize.Normalizer, sampleSize int, logger *zap.Logger) *Splitter {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Splitter{normalizer: n, sampleSize: sampleSize, logger: logger}
}

// Cell normalizes and splits a single raw cell.
func (s *Splitter) Cell(raw *string) (*string, domain.PhaseLabel) {
	return Split(s.normalizer.Normalize(raw))
}

// Process normalizes every cell of g, then splits phase suffixes out of each
// eligible column into a derived "<column>_phase" column. Columns already
// named after phases and derived columns are left alone.
func (s *Splitter) Process(g *domain.Grid) (*domain.Grid, Summary) {
	cleaned := g.Map(func(_, _ int, text *string) *string {
		out := s.normalizer.Normalize(text)
		if out != nil && IsDashSentinel(*out) {
			return nil
		}
		return out
	})

	var sum Summary
	seen := make(map[domain.PhaseLabel]bool)
	replaced := make(map[int][]*string)
	type derived struct {
		parent int
		name   string
		labels []*string
	}
	var extra []derived

	for c := 0; c < cleaned.NumCols(); c++ {
		if !s.eligible(cleaned, c) {
			continue
		}
		values := make([]*string, cleaned.NumRows())
		labels := make([]*string, cleaned.NumRows())
		temperature := isTemperatureName(cleaned.ColumnName(c))
		found := 0
		for r := 0; r < cleaned.NumRows(); r++ {
			cell := cleaned.Text(r, c)
			v, lbl := Split(cell)
			if temperature && lbl != "" && isUnitSuffix(*cell, lbl) {
				values[r] = cell
				continue
			}
			values[r] = v
			if lbl != "" {
				l := string(lbl)
				labels[r] = &l
				found++
				seen[lbl] = true
			}
		}
		if found == 0 {
			continue
		}
		replaced[c] = values
		name := cleaned.ColumnName(c) + "_phase"
		extra = append(extra, derived{parent: c, name: name, labels: labels})
		sum.ColumnsSplit = append(sum.ColumnsSplit, cleaned.ColumnName(c))
		sum.CellsSplit += found
	}

	if len(replaced) == 0 {
		return cleaned, sum
	}

	out := cleaned.Map(func(r, c int, text *string) *string {
		if vals, ok := replaced[c]; ok {
			return vals[r]
		}
		return text
	})
	for _, d := range extra {
		next, err := out.AppendColumn(d.name, d.parent, d.labels)
		if err != nil {
			// values are sized from the same grid
			s.logger.Error("phase.Splitter: appending derived column", zap.String("column", d.name), zap.Error(err))
			continue
		}
		out = next
	}

	for lbl := range seen {
		sum.PhasesFound = append(sum.PhasesFound, lbl)
	}
	sort.Slice(sum.PhasesFound, func(i, j int) bool { return sum.PhasesFound[i] < sum.PhasesFound[j] })

	s.logger.Debug("phase.Splitter: split phase labels",
		zap.String("table", g.Provenance.Label()),
		zap.Strings("columns", sum.ColumnsSplit),
		zap.Int("cells", sum.CellsSplit),
	)
	return out, sum
}

func (s *Splitter) eligible(g *domain.Grid, c int) bool {
	if g.IsDerived(c) || strings.Contains(strings.ToLower(g.ColumnName(c)), "phase") {
		return false
	}
	for _, v := range g.NonNull(c, s.sampleSize) {
		if HasSuffix(v) {
			return true
		}
	}
	return false
}

// isTemperatureName reports whether a column header names a temperature,
// e.g. "t", "t, °C", "T (K)" or "Temperature".
func isTemperatureName(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "t" || strings.Contains(n, "temp") || strings.Contains(n, "°") {
		return true
	}
	return len(n) > 1 && n[0] == 't' && strings.ContainsRune(" ,(", rune(n[1]))
}

// isUnitSuffix reports whether lbl was split from a spaced "C" or "F" that
// reads as a temperature unit ("25 C") rather than a phase.
func isUnitSuffix(cell string, lbl domain.PhaseLabel) bool {
	if lbl != "C" && lbl != "F" {
		return false
	}
	return !strings.HasSuffix(strings.TrimSpace(cell), ")")
}

var referenceRe = regexp.MustCompile(`^(.*?\d)\s*[(\[]\s*([A-Za-z][\w.]*)\s*[)\]]$`)

// StripReference separates a trailing bibliographic reference marker such as
// "(Ref3)" from a numeric cell. Phase labels are not references.
func StripReference(text string) (value, ref string, ok bool) {
	m := referenceRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil || IsLabel(m[2]) {
		return text, "", false
	}
	return strings.TrimSpace(m[1]), m[2], true
}
