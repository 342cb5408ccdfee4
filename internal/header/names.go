package header

import (
	"fmt"
	"regexp"
	"strings"

	"soltab/internal/domain"
)

var displayNames = map[domain.ColumnType]string{
	domain.ColumnTemperature: "Temperature (°C)",
	domain.ColumnMassPercent: "Mass %",
	domain.ColumnMolePercent: "Mole %",
	domain.ColumnMolality:    "Molality (mol/kg)",
	domain.ColumnPH:          "pH",
	domain.ColumnDensity:     "Density (g/cm³)",
	domain.ColumnPressure:    "Pressure (kPa)",
	domain.ColumnPhase:       "Phase",
	domain.ColumnComposition: "Composition",
}

// DisplayName returns the canonical column name of a type. Untyped numeric
// and text columns are numbered after their position.
func DisplayName(t domain.ColumnType, idx int) string {
	if n, ok := displayNames[t]; ok {
		return n
	}
	if t == domain.ColumnNumeric {
		return fmt.Sprintf("Data_%d", idx)
	}
	return fmt.Sprintf("Text_%d", idx)
}

// Placeholder returns "Column_A", "Column_B", ..., "Column_AA" for index i.
func Placeholder(i int) string {
	return "Column_" + letters(i)
}

func letters(i int) string {
	s := ""
	for i >= 0 {
		s = string(rune('A'+i%26)) + s
		i = i/26 - 1
	}
	return s
}

var (
	positionalRe = regexp.MustCompile(`^\d+$`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

func isPositional(name string) bool {
	n := strings.TrimSpace(name)
	return n == "" || positionalRe.MatchString(n) || strings.HasPrefix(n, "Unnamed")
}

func cleanName(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// MakeUnique suffixes repeated names with _2, _3, ... so every name is
// distinct. The first occurrence keeps its name.
func MakeUnique(names []string) []string {
	out := make([]string, len(names))
	used := make(map[string]bool, len(names))
	for _, n := range names {
		used[n] = false
	}
	counts := make(map[string]int, len(names))
	for i, n := range names {
		if !used[n] {
			used[n] = true
			out[i] = n
			continue
		}
		k := counts[n]
		if k < 2 {
			k = 2
		}
		candidate := fmt.Sprintf("%s_%d", n, k)
		for taken(used, candidate) {
			k++
			candidate = fmt.Sprintf("%s_%d", n, k)
		}
		counts[n] = k + 1
		used[candidate] = true
		out[i] = candidate
	}
	return out
}

func taken(used map[string]bool, name string) bool {
	v, ok := used[name]
	return ok && v
}
