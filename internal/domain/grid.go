package domain

import (
	"fmt"
	"strconv"
)

// Provenance identifies where a grid or table came from.
type Provenance struct {
	SourceDocument   string `json:"source_document" db:"source_document"`
	Page             int    `json:"page" db:"page"`
	TableIndex       int    `json:"table_index" db:"table_index"`
	ExtractionMethod string `json:"extraction_method" db:"extraction_method"`
}

// Label returns a short human-readable identifier such as "SDS-31_Part2#004".
func (p Provenance) Label() string {
	return fmt.Sprintf("%s#%03d", p.SourceDocument, p.TableIndex)
}

// TableName returns the file stem used for per-table outputs, e.g.
// "SDS-31_Part2_table_004".
func (p Provenance) TableName() string {
	return fmt.Sprintf("%s_table_%03d", p.SourceDocument, p.TableIndex)
}

// Cell is a single raw text cell. A nil Text is a null cell.
type Cell struct {
	Row  int
	Col  int
	Text *string
}

// IsNull reports whether the cell carries no text.
func (c Cell) IsNull() bool { return c.Text == nil }

// String returns the cell text, or "" for null cells.
func (c Cell) String() string {
	if c.Text == nil {
		return ""
	}
	return *c.Text
}

// Str is a convenience for building nullable cell text.
func Str(s string) *string { return &s }

// Grid is an immutable rectangular table of raw text cells. Every row holds
// exactly len(Header) cells. Stages never mutate a Grid; they build new ones.
type Grid struct {
	Provenance Provenance

	header      []string
	derivedFrom []int
	cells       [][]*string
}

// NewGrid builds a Grid from rows of nullable text. A nil header is replaced
// by positional labels "0", "1", ... sized to the first row. Ragged rows are a
// contract violation and yield ErrGridShape.
func NewGrid(prov Provenance, header []string, rows [][]*string) (*Grid, error) {
	width := len(header)
	if header == nil && len(rows) > 0 {
		width = len(rows[0])
	}
	if header == nil {
		header = PositionalHeader(width)
	}

	cells := make([][]*string, len(rows))
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d cells, want %d: %w", i, len(row), width, ErrGridShape)
		}
		cells[i] = append([]*string(nil), row...)
	}

	derived := make([]int, width)
	for i := range derived {
		derived[i] = -1
	}

	return &Grid{
		Provenance:  prov,
		header:      append([]string(nil), header...),
		derivedFrom: derived,
		cells:       cells,
	}, nil
}

// MustGrid is NewGrid for literals known to be rectangular.
func MustGrid(prov Provenance, header []string, rows [][]*string) *Grid {
	g, err := NewGrid(prov, header, rows)
	if err != nil {
		panic(err)
	}
	return g
}

// PositionalHeader returns the labels "0".."n-1".
func PositionalHeader(n int) []string {
	h := make([]string, n)
	for i := range h {
		h[i] = strconv.Itoa(i)
	}
	return h
}

func (g *Grid) NumRows() int { return len(g.cells) }
func (g *Grid) NumCols() int { return len(g.header) }

// Shape returns (rows, cols).
func (g *Grid) Shape() (int, int) { return len(g.cells), len(g.header) }

// Header returns a copy of the column labels.
func (g *Grid) Header() []string { return append([]string(nil), g.header...) }

// ColumnName returns the label of column c.
func (g *Grid) ColumnName(c int) string { return g.header[c] }

// DerivedFrom returns the parent column index of a derived column, or -1.
func (g *Grid) DerivedFrom(c int) int { return g.derivedFrom[c] }

// IsDerived reports whether column c was produced by the pipeline.
func (g *Grid) IsDerived(c int) bool { return g.derivedFrom[c] >= 0 }

// Text returns the nullable text at (r, c).
func (g *Grid) Text(r, c int) *string { return g.cells[r][c] }

// Cell returns the cell at (r, c).
func (g *Grid) Cell(r, c int) Cell { return Cell{Row: r, Col: c, Text: g.cells[r][c]} }

// Row returns a copy of row r.
func (g *Grid) Row(r int) []*string { return append([]*string(nil), g.cells[r]...) }

// Column returns a copy of column c.
func (g *Grid) Column(c int) []*string {
	out := make([]*string, len(g.cells))
	for r := range g.cells {
		out[r] = g.cells[r][c]
	}
	return out
}

// NonNull returns up to limit non-null texts of column c in row order.
// A limit <= 0 returns all of them.
func (g *Grid) NonNull(c, limit int) []string {
	var out []string
	for r := range g.cells {
		if t := g.cells[r][c]; t != nil {
			out = append(out, *t)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out
}

// Map returns a new grid with fn applied to every cell.
func (g *Grid) Map(fn func(r, c int, text *string) *string) *Grid {
	out := g.clone()
	for r := range out.cells {
		for c := range out.cells[r] {
			out.cells[r][c] = fn(r, c, g.cells[r][c])
		}
	}
	return out
}

// AppendColumn returns a new grid with an extra column derived from parent.
func (g *Grid) AppendColumn(name string, parent int, values []*string) (*Grid, error) {
	if len(values) != len(g.cells) {
		return nil, fmt.Errorf("derived column %q has %d values, want %d: %w", name, len(values), len(g.cells), ErrGridShape)
	}
	out := g.clone()
	out.header = append(out.header, name)
	out.derivedFrom = append(out.derivedFrom, parent)
	for r := range out.cells {
		out.cells[r] = append(out.cells[r], values[r])
	}
	return out, nil
}

// DropLeadingRows returns a new grid without its first n rows.
func (g *Grid) DropLeadingRows(n int) *Grid {
	out := g.clone()
	if n > len(out.cells) {
		n = len(out.cells)
	}
	out.cells = out.cells[n:]
	return out
}

// WithHeader returns a new grid with replaced column labels.
func (g *Grid) WithHeader(header []string) (*Grid, error) {
	if len(header) != len(g.header) {
		return nil, fmt.Errorf("header has %d labels, want %d: %w", len(header), len(g.header), ErrGridShape)
	}
	out := g.clone()
	out.header = append([]string(nil), header...)
	return out, nil
}

// WithProvenance returns a shallow copy carrying different provenance.
func (g *Grid) WithProvenance(p Provenance) *Grid {
	out := g.clone()
	out.Provenance = p
	return out
}

func (g *Grid) clone() *Grid {
	cells := make([][]*string, len(g.cells))
	for r := range g.cells {
		cells[r] = append([]*string(nil), g.cells[r]...)
	}
	return &Grid{
		Provenance:  g.Provenance,
		header:      append([]string(nil), g.header...),
		derivedFrom: append([]int(nil), g.derivedFrom...),
		cells:       cells,
	}
}
