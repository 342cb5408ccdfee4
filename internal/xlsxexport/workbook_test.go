package xlsxexport_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"soltab/internal/domain"
	"soltab/internal/xlsxexport"
)

func TestSheetName(t *testing.T) {
	used := map[string]bool{"Index": true, "index": true}
	assert.Equal(t, "SDS-31_Part2_tables_001-004", xlsxexport.SheetName("SDS-31_Part2_tables_001-004", used))
	assert.Equal(t, "SDS-31_Part2_tables_001-004~2", xlsxexport.SheetName("SDS-31_Part2_tables_001-004", used))
	assert.Equal(t, "index~2", xlsxexport.SheetName("index", used))

	long := xlsxexport.SheetName(strings.Repeat("x", 40), used)
	assert.Len(t, long, 31)
	assert.Equal(t, "a_b", xlsxexport.SheetName("a/b", used))
}

func TestWriteDataset(t *testing.T) {
	phased := domain.Number(26.4, "26.4")
	phased.Phase = "A"
	referenced := domain.Number(50, "50 (Ref2)")
	referenced.Reference = "Ref2"
	ds := &domain.Dataset{Tables: []domain.MergedTable{{
		Name:       "SDS-7_tables_001-002",
		System:     "NaCl-H2O",
		TableRange: "001-002",
		Sources:    []domain.Provenance{{SourceDocument: "SDS-7", TableIndex: 1}, {SourceDocument: "SDS-7", TableIndex: 2}},
		TableTypes: []domain.ColumnType{domain.ColumnTemperature},
		Table: &domain.Table{
			Columns: []domain.Column{{Name: "temperature_C"}, {Name: "mass_percent"}},
			Rows: [][]domain.Value{
				{domain.Number(25, "25"), phased},
				{referenced, domain.Null()},
			},
		},
	}}}
	records := []*domain.TableRecord{{
		Provenance: domain.Provenance{SourceDocument: "SDS-7", TableIndex: 1},
		Score:      95,
		Priority:   domain.PriorityOptional,
		Flags:      []domain.ValidationFlag{{Severity: domain.SeverityWarning}},
	}}

	var buf bytes.Buffer
	require.NoError(t, xlsxexport.WriteDataset(&buf, ds, records))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Index", "Quality", "SDS-7_tables_001-002"}, f.GetSheetList())

	rows, err := f.GetRows("SDS-7_tables_001-002")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"temperature_C", "mass_percent"}, rows[0])
	assert.Equal(t, []string{"25", "26.4 (A)"}, rows[1])
	assert.Equal(t, []string{"50 [Ref2]"}, rows[2])

	index, err := f.GetRows("Index")
	require.NoError(t, err)
	require.Len(t, index, 2)
	assert.Equal(t, "SDS-7_table_001;SDS-7_table_002", index[1][4])

	quality, err := f.GetRows("Quality")
	require.NoError(t, err)
	require.Len(t, quality, 2)
	assert.Equal(t, "95", quality[1][4])
	assert.Equal(t, "1", quality[1][8])
}
