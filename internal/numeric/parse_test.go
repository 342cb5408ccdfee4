package numeric_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"soltab/internal/numeric"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"25", 25, true},
		{" 0.026 ", 0.026, true},
		{"7,5", 7.5, true},
		{"-12.4", -12.4, true},
		{"25 °C", 25, true},
		{"45.2%", 45.2, true},
		{"1 000", 1000, true},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"A", 0, false},
		{"%", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := numeric.Parse(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9, tt.in)
		}
	}
}

func TestFractionInRange(t *testing.T) {
	assert.InDelta(t, 0.5, numeric.FractionInRange([]string{"1", "200", "x", "3"}, 0, 10), 1e-9)
	assert.Zero(t, numeric.FractionInRange(nil, 0, 10))
}

func TestStats(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 5.0, numeric.Mean(xs), 1e-9)
	assert.InDelta(t, 2.138, numeric.StdDev(xs), 1e-3)
	assert.Zero(t, numeric.StdDev([]float64{1}))
}
