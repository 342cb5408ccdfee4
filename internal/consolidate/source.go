package consolidate

import (
	"regexp"
	"strconv"

	"soltab/internal/domain"
)

var sourceNameRe = regexp.MustCompile(`^(SDS-\d+)(?:_Part(\d+))?`)

// SourceName is the booklet series and part encoded in a document name.
type SourceName struct {
	Series string
	Part   int
}

// ParseSourceName reads names such as "SDS-31_Part2". Part is 0 when the
// document is not split.
func ParseSourceName(doc string) (SourceName, bool) {
	m := sourceNameRe.FindStringSubmatch(doc)
	if m == nil {
		return SourceName{}, false
	}
	sn := SourceName{Series: m[1]}
	if m[2] != "" {
		sn.Part, _ = strconv.Atoi(m[2])
	}
	return sn, true
}

// typeOrder fixes the order in which table types are reported.
var typeOrder = []domain.ColumnType{
	domain.ColumnTemperature,
	domain.ColumnMassPercent,
	domain.ColumnMolePercent,
	domain.ColumnMolality,
	domain.ColumnPH,
	domain.ColumnDensity,
	domain.ColumnPressure,
	domain.ColumnPhase,
	domain.ColumnComposition,
}

// ClassifyTableTypes lists the semantic data types present in t. Generic
// numeric and text columns are not table types.
func ClassifyTableTypes(t *domain.Table) []domain.ColumnType {
	if t == nil {
		return nil
	}
	present := make(map[domain.ColumnType]bool, len(t.Columns))
	for _, c := range t.Columns {
		present[c.Type] = true
	}
	return orderedTypes(present)
}

func orderedTypes(present map[domain.ColumnType]bool) []domain.ColumnType {
	out := []domain.ColumnType{}
	for _, typ := range typeOrder {
		if present[typ] {
			out = append(out, typ)
		}
	}
	return out
}

// RowSources returns the provenance of every row of a merged table, read
// from its table_index column. Rows whose source cannot be resolved get the
// provenance of the first source.
func RowSources(m *domain.MergedTable) []domain.Provenance {
	if m == nil || m.Table == nil || len(m.Sources) == 0 {
		return nil
	}
	byIndex := make(map[int]domain.Provenance, len(m.Sources))
	for _, s := range m.Sources {
		byIndex[s.TableIndex] = s
	}
	col := m.Table.NumCols() - 2
	out := make([]domain.Provenance, len(m.Table.Rows))
	for i, row := range m.Table.Rows {
		out[i] = m.Sources[0]
		if col < 0 || col >= len(row) || !row[col].IsNumber() {
			continue
		}
		if p, ok := byIndex[int(row[col].Number)]; ok {
			out[i] = p
		}
	}
	return out
}
