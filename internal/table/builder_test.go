package table_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soltab/internal/domain"
	"soltab/internal/table"
)

func s(v string) *string { return domain.Str(v) }

func TestBuild_TypesAndPhases(t *testing.T) {
	g := domain.MustGrid(domain.Provenance{SourceDocument: "SDS-7_Part1", TableIndex: 2},
		[]string{"Temperature (°C)", "Mass %"},
		[][]*string{
			{s("25"), s("26.4")},
			{s("50 °C"), s("27.1 (Ref3)")},
			{s("--"), nil},
		})
	g, err := g.AppendColumn("Mass %_phase", 1, []*string{s("A"), nil, nil})
	require.NoError(t, err)

	assignments := []domain.ColumnTypeAssignment{
		{Index: 0, StandardizedName: "Temperature (°C)", DetectedType: domain.ColumnTemperature, Unit: "°C", Confidence: 1},
		{Index: 1, StandardizedName: "Mass %", DetectedType: domain.ColumnMassPercent, Unit: "%", Confidence: 1},
		{Index: 2, StandardizedName: "Mass %_phase", DetectedType: domain.ColumnPhase, Confidence: 1, Derived: true},
	}

	tbl := table.Build(g, assignments)
	require.Equal(t, 3, tbl.NumRows())
	require.Equal(t, 3, tbl.NumCols())
	assert.Equal(t, "Mass %", tbl.Columns[1].Name)
	assert.True(t, tbl.Columns[2].Derived)

	assert.True(t, tbl.Rows[0][0].IsNumber())
	assert.InDelta(t, 25.0, tbl.Rows[0][0].Number, 1e-9)
	assert.Equal(t, domain.PhaseLabel("A"), tbl.Rows[0][1].Phase)
	assert.Equal(t, domain.PhaseLabel("A"), tbl.Rows[0][2].Phase)

	assert.InDelta(t, 50.0, tbl.Rows[1][0].Number, 1e-9)
	assert.InDelta(t, 27.1, tbl.Rows[1][1].Number, 1e-9)
	assert.Equal(t, "Ref3", tbl.Rows[1][1].Reference)

	assert.True(t, tbl.Rows[2][0].IsNull())
	assert.True(t, tbl.Rows[2][1].IsNull())
	assert.Equal(t, []float64{26.4, 27.1}, tbl.Numbers(1))
}

func TestBuild_WithoutAssignments(t *testing.T) {
	g := domain.MustGrid(domain.Provenance{}, []string{"a", "b"}, [][]*string{{s("1"), s("x")}})
	tbl := table.Build(g, nil)

	assert.Equal(t, "a", tbl.Columns[0].Name)
	assert.Equal(t, domain.ColumnText, tbl.Columns[0].Type)
	assert.Equal(t, domain.KindText, tbl.Rows[0][0].Kind)
}

func TestValue(t *testing.T) {
	assert.True(t, table.Value(nil, domain.ColumnNumeric).IsNull())
	assert.True(t, table.Value(s("---"), domain.ColumnNumeric).IsNull())
	assert.True(t, table.Value(s("7.5"), domain.ColumnNumeric).IsNumber())
	assert.Equal(t, domain.KindText, table.Value(s("NaCl"), domain.ColumnNumeric).Kind)
	assert.Equal(t, domain.KindText, table.Value(s("12"), domain.ColumnText).Kind)

	ph := table.Value(s("A+B"), domain.ColumnPhase)
	assert.Equal(t, domain.PhaseLabel("A+B"), ph.Phase)
	assert.Equal(t, "A+B", ph.Text)
}
