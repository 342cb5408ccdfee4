// Package numeric parses the numbers found in cleaned table cells.
package numeric

import (
	"math"
	"strconv"
	"strings"
)

var unitSuffixes = []string{"°C", "° C", "°K", "°", "%", "K"}

// Parse reads a decimal number from s. It tolerates a trailing unit, a comma
// decimal separator and spaces inside the number. NaN and infinities are
// rejected.
func Parse(s string) (float64, bool) {
	t := strings.TrimSpace(s)
	for _, u := range unitSuffixes {
		if strings.HasSuffix(t, u) && len(t) > len(u) {
			t = strings.TrimSpace(strings.TrimSuffix(t, u))
			break
		}
	}
	t = strings.ReplaceAll(t, ",", ".")
	t = strings.ReplaceAll(t, " ", "")
	if t == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// IsNumber reports whether Parse accepts s.
func IsNumber(s string) bool {
	_, ok := Parse(s)
	return ok
}

// ParseAll returns the parseable numbers among values.
func ParseAll(values []string) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := Parse(v); ok {
			out = append(out, f)
		}
	}
	return out
}

// FractionInRange returns the share of values that parse and fall in [lo, hi].
// Unparseable values count against the share.
func FractionInRange(values []string, lo, hi float64) float64 {
	if len(values) == 0 {
		return 0
	}
	n := 0
	for _, v := range values {
		if f, ok := Parse(v); ok && f >= lo && f <= hi {
			n++
		}
	}
	return float64(n) / float64(len(values))
}

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev returns the sample standard deviation of xs.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	ss := 0.0
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
