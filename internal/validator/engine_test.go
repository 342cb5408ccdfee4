package validator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soltab/internal/domain"
	"soltab/internal/validator"
	"soltab/internal/validator/science"
)

func numbers(cols []domain.Column, rows ...[]float64) *science.Subject {
	t := &domain.Table{Columns: cols}
	for _, r := range rows {
		row := make([]domain.Value, len(r))
		for i, v := range r {
			row[i] = domain.Number(v, "")
		}
		t.Rows = append(t.Rows, row)
	}
	as := make([]domain.ColumnTypeAssignment, len(cols))
	for i, c := range cols {
		as[i] = domain.ColumnTypeAssignment{Index: i, StandardizedName: c.Name, DetectedType: c.Type, Confidence: 0.95, Unit: c.Unit}
	}
	return &science.Subject{Table: t, Assignments: as, HeaderConfidence: 0.95}
}

var solubilityCols = []domain.Column{
	{Name: "Temperature (°C)", Type: domain.ColumnTemperature, Unit: "°C"},
	{Name: "Mass %", Type: domain.ColumnMassPercent, Unit: "%"},
}

func newEngine() *validator.Engine {
	return validator.NewEngine(validator.NewDefaultRegistry(science.DefaultThresholds()), nil)
}

func TestEngine_CleanTablePasses(t *testing.T) {
	s := numbers(solubilityCols,
		[]float64{0, 26.3}, []float64{10, 27.5}, []float64{20, 28.9}, []float64{30, 30.2}, []float64{40, 31.8})

	r := newEngine().Validate(context.Background(), s)
	assert.Empty(t, r.Flags)
	assert.Equal(t, 100, r.Score)
	assert.Equal(t, domain.PriorityPassed, r.Priority)
	assert.False(t, r.NeedsReview)
}

func TestEngine_ImpossibleTemperatureCostsAtLeastFifteen(t *testing.T) {
	base := numbers(solubilityCols, []float64{-20, 26.3}, []float64{25, 27.5}, []float64{100, 28.9})
	bad := numbers(solubilityCols, []float64{-280, 26.3}, []float64{25, 27.5}, []float64{100, 28.9})

	e := newEngine()
	rb := e.Validate(context.Background(), base)
	rx := e.Validate(context.Background(), bad)

	var found bool
	for _, f := range rx.Flags {
		if f.Kind == "impossible_temperature" {
			found = true
			assert.Equal(t, domain.SeverityCritical, f.Severity)
		}
	}
	assert.True(t, found)
	assert.LessOrEqual(t, rx.Score, rb.Score-15)
	assert.Equal(t, domain.PriorityMustReview, rx.Priority)
}

func TestEngine_ZeroColumns(t *testing.T) {
	s := &science.Subject{Table: &domain.Table{}}

	var r *validator.Report
	require.NotPanics(t, func() { r = newEngine().Validate(context.Background(), s) })

	var kinds []string
	for _, f := range r.Flags {
		kinds = append(kinds, f.Kind)
	}
	assert.Contains(t, kinds, "too_few_columns")
	assert.LessOrEqual(t, r.Score, 85)
	assert.True(t, r.NeedsReview)
}

func TestEngine_NilTable(t *testing.T) {
	r := newEngine().Validate(context.Background(), &science.Subject{})
	assert.True(t, r.NeedsReview)
}

type panicCheck struct{}

func (panicCheck) Check(context.Context, *science.Subject) []domain.ValidationFlag { panic("boom") }
func (panicCheck) CheckKey() string { return "test.panic" }
func (panicCheck) CheckName() string { return "Test: Panic" }

func TestEngine_RecoversPanickingCheck(t *testing.T) {
	reg := validator.NewRegistry()
	reg.Register(panicCheck{})
	for _, c := range science.CompletenessChecks() {
		reg.Register(c)
	}

	r := validator.NewEngine(reg, nil).Validate(context.Background(), numbers(solubilityCols, []float64{25, 26.3}))
	require.Len(t, r.Flags, 1)
	assert.Equal(t, "small_table", r.Flags[0].Kind)
}

func TestScore_CriticalMonotonicity(t *testing.T) {
	flags := []domain.ValidationFlag{{Severity: domain.SeverityWarning}, {Severity: domain.SeverityInfo}}
	before := validator.Score(flags)
	after := validator.Score(append(flags, domain.ValidationFlag{Severity: domain.SeverityCritical}))
	assert.Equal(t, 94, before)
	assert.Equal(t, before-15, after)
}

func TestScore_Clamped(t *testing.T) {
	flags := make([]domain.ValidationFlag, 8)
	for i := range flags {
		flags[i].Severity = domain.SeverityCritical
	}
	assert.Equal(t, 0, validator.Score(flags))
	assert.Equal(t, 100, validator.Score(nil))
}

func TestPriorityFor(t *testing.T) {
	w := domain.ValidationFlag{Severity: domain.SeverityWarning}
	tests := []struct {
		name   string
		flags  []domain.ValidationFlag
		want   domain.Priority
		review bool
	}{
		{"none", nil, domain.PriorityPassed, false},
		{"info", []domain.ValidationFlag{{Severity: domain.SeverityInfo}}, domain.PriorityOptional, false},
		{"one warning", []domain.ValidationFlag{w}, domain.PriorityRecommended, false},
		{"two warnings", []domain.ValidationFlag{w, w}, domain.PriorityRecommended, false},
		{"three warnings", []domain.ValidationFlag{w, w, w}, domain.PriorityShouldReview, true},
		{"critical", []domain.ValidationFlag{{Severity: domain.SeverityCritical}}, domain.PriorityMustReview, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validator.PriorityFor(tt.flags))
			assert.Equal(t, tt.review, validator.NeedsReview(tt.flags))
		})
	}
}

func TestRegistry_OrderAndReplace(t *testing.T) {
	reg := validator.NewDefaultRegistry(science.DefaultThresholds())
	all := reg.All()
	require.NotEmpty(t, all)
	assert.Equal(t, "header.confidence", all[0].CheckKey())
	assert.NotNil(t, reg.Get("plausibility.mass_balance"))
	assert.Nil(t, reg.Get("missing"))

	n := len(all)
	reg.Register(panicCheck{})
	reg.Register(panicCheck{})
	assert.Len(t, reg.All(), n+1)
}
