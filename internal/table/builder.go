// Package table turns a header-resolved grid into a typed Table.
package table

import (
	"strings"

	"soltab/internal/domain"
	"soltab/internal/numeric"
	"soltab/internal/phase"
)

// Build converts g into a typed table. Column names and types come from
// assignments when they cover every column; otherwise the grid header is used
// and every column is typed as text. Phase labels held in a derived column are
// also attached to the matching value of the parent column.
func Build(g *domain.Grid, assignments []domain.ColumnTypeAssignment) *domain.Table {
	rows, cols := g.Shape()
	t := &domain.Table{
		Provenance: g.Provenance,
		Columns:    columns(g, assignments),
		Rows:       make([][]domain.Value, rows),
	}

	for r := 0; r < rows; r++ {
		row := make([]domain.Value, cols)
		for c := 0; c < cols; c++ {
			row[c] = cellValue(g.Text(r, c), t.Columns[c])
		}
		for c := 0; c < cols; c++ {
			if !g.IsDerived(c) || !row[c].HasPhase() {
				continue
			}
			parent := g.DerivedFrom(c)
			if !row[parent].IsNull() && !row[parent].HasPhase() {
				row[parent].Phase = row[c].Phase
			}
		}
		t.Rows[r] = row
	}
	return t
}

func columns(g *domain.Grid, assignments []domain.ColumnTypeAssignment) []domain.Column {
	out := make([]domain.Column, g.NumCols())
	useAssignments := len(assignments) == g.NumCols()
	for c := range out {
		if useAssignments {
			a := assignments[c]
			out[c] = domain.Column{Name: a.StandardizedName, Type: a.DetectedType, Unit: a.Unit, Derived: a.Derived}
			if out[c].Name == "" {
				out[c].Name = g.ColumnName(c)
			}
			continue
		}
		out[c] = domain.Column{Name: g.ColumnName(c), Type: domain.ColumnText, Derived: g.IsDerived(c)}
		if g.IsDerived(c) {
			out[c].Type = domain.ColumnPhase
		}
	}
	return out
}

// Value types a single cleaned cell for a column of type typ.
func Value(text *string, typ domain.ColumnType) domain.Value {
	return cellValue(text, domain.Column{Type: typ})
}

func cellValue(text *string, col domain.Column) domain.Value {
	if text == nil {
		return domain.Null()
	}
	s := strings.TrimSpace(*text)
	if s == "" || phase.IsDashSentinel(s) {
		return domain.Null()
	}

	if col.Type == domain.ColumnPhase || col.Derived {
		v := domain.Text(s)
		if phase.IsLabel(s) {
			v.Phase = domain.PhaseLabel(s)
		}
		return v
	}

	body, ref, _ := phase.StripReference(s)
	if col.Type != domain.ColumnText && col.Type != domain.ColumnComposition {
		if f, ok := numeric.Parse(body); ok {
			v := domain.Number(f, s)
			v.Reference = ref
			return v
		}
	}
	v := domain.Text(s)
	if ref != "" {
		v.Text = body
		v.Reference = ref
	}
	return v
}
