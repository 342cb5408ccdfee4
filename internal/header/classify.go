package header

import (
	"regexp"
	"strings"

	"soltab/internal/domain"
	"soltab/internal/numeric"
	"soltab/internal/phase"
)

// sampleSize is how many non-null values the classifiers look at.
const sampleSize = 20

type keywordRule struct {
	typ        domain.ColumnType
	confidence float64
	match      func(name string) bool
}

func containsAny(subs ...string) func(string) bool {
	return func(name string) bool {
		for _, s := range subs {
			if strings.Contains(name, s) {
				return true
			}
		}
		return false
	}
}

// keywordRules are checked in order against the lowercased header text.
var keywordRules = []keywordRule{
	{domain.ColumnTemperature, 0.95, func(n string) bool {
		return n == "t" || n == "θ" || strings.HasPrefix(n, "t/") || strings.HasPrefix(n, "t,") ||
			containsAny("temp", "°c", "°k", "celsius", "kelvin")(n)
	}},
	{domain.ColumnMassPercent, 0.95, containsAny("mass%", "mass %", "mass percent", "mass fraction", "wt%", "wt %", "wt.%", "weight%", "weight %", "w/%", "mass")},
	{domain.ColumnMolality, 0.95, containsAny("mol/kg", "mol kg", "mol·kg", "molality", "molal")},
	{domain.ColumnMolePercent, 0.9, containsAny("mol%", "mol %", "mole%", "mole %", "mole fraction", "mol fraction")},
	{domain.ColumnPH, 0.95, func(n string) bool {
		return n == "ph" || strings.HasPrefix(n, "ph ") || strings.HasPrefix(n, "ph(") || strings.Contains(n, "p.h.")
	}},
	{domain.ColumnPhase, 0.95, containsAny("phase", "solid")},
	{domain.ColumnDensity, 0.95, containsAny("density", "ρ", "rho", "g/cm", "g cm")},
	{domain.ColumnPressure, 0.9, containsAny("pressure", "kpa", "mpa", "mmhg", "(bar)", "/bar", "atm")},
	{domain.ColumnComposition, 0.8, containsAny("composition", "conc", "component")},
}

var (
	degreeRe  = regexp.MustCompile(`\d\s*°`)
	percentRe = regexp.MustCompile(`\d\s*%`)
)

// headerKeywordType classifies a header text by keywords alone.
func headerKeywordType(name string) (domain.ColumnType, float64, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", 0, false
	}
	for _, r := range keywordRules {
		if r.match(n) {
			return r.typ, r.confidence, true
		}
	}
	return "", 0, false
}

// Classify detects a column type from its header text and a sample of its
// values. Header keywords win over value patterns.
func Classify(name string, sample []string) (domain.ColumnType, float64) {
	if t, c, ok := headerKeywordType(name); ok {
		return t, c
	}
	if len(sample) == 0 {
		return domain.ColumnText, 0.1
	}
	for _, v := range sample {
		if degreeRe.MatchString(v) {
			return domain.ColumnTemperature, 0.85
		}
	}
	for _, v := range sample {
		if percentRe.MatchString(v) {
			return domain.ColumnMassPercent, 0.8
		}
	}
	labels, nums := 0, 0
	for _, v := range sample {
		if phase.IsLabel(v) {
			labels++
		}
		if numeric.IsNumber(v) {
			nums++
		}
	}
	if float64(labels) > 0.5*float64(len(sample)) {
		return domain.ColumnPhase, 0.85
	}
	if float64(nums) > 0.7*float64(len(sample)) {
		return domain.ColumnNumeric, 0.6
	}
	return domain.ColumnText, 0.5
}

// Analyze is the column-analysis pass whose output feeds type propagation.
// It classifies every column of g from its label and values.
func Analyze(g *domain.Grid) []domain.ColumnTypeAssignment {
	out := make([]domain.ColumnTypeAssignment, 0, g.NumCols())
	for c := 0; c < g.NumCols(); c++ {
		if g.IsDerived(c) {
			continue
		}
		name := g.ColumnName(c)
		if isPositional(name) {
			name = ""
		}
		t, conf := Classify(name, g.NonNull(c, sampleSize))
		out = append(out, domain.ColumnTypeAssignment{
			Index:        c,
			OriginalName: g.ColumnName(c),
			DetectedType: t,
			Confidence:   conf,
			Unit:         t.Unit(),
		})
	}
	return out
}

// containsKeyword reports whether a header text mentions any known quantity.
func containsKeyword(text string) bool {
	_, _, ok := headerKeywordType(text)
	if ok {
		return true
	}
	n := strings.ToLower(text)
	return strings.Contains(n, "%") || strings.Contains(n, "mol") || strings.Contains(n, "fraction")
}
