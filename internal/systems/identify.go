// Package systems identifies the chemical system, e.g. "Na3PO4-H2O", that
// each table of a booklet describes.
package systems

import (
	"regexp"
	"strings"

	"soltab/internal/domain"
)

const (
	formula = `(?:\(?[A-Z][a-z]?\d*\)?\d*)+`
	dash    = `\s*[-‐‑–—]\s*`
)

var (
	// systemRe matches one or more formulas joined by dashes and ending in water.
	systemRe  = regexp.MustCompile(`(` + formula + `(?:` + dash + formula + `)*)` + dash + `H\s*2?\s*O\b`)
	dashRe    = regexp.MustCompile(dash)
	spaceRe   = regexp.MustCompile(`\s+`)
	elementRe = regexp.MustCompile(`[A-Z][a-z]?`)
)

// Find returns the distinct system names in text, in order of appearance.
// Names are normalized to ASCII dashes, no spaces and a trailing "H2O".
func Find(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range systemRe.FindAllStringSubmatch(text, -1) {
		parts := dashRe.Split(m[1], -1)
		ok := true
		for i, p := range parts {
			parts[i] = spaceRe.ReplaceAllString(p, "")
			if !plausibleFormula(parts[i]) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		name := strings.Join(append(parts, "H2O"), "-")
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// plausibleFormula rejects lone letters such as phase labels; a formula
// needs two elements or an element with a count.
func plausibleFormula(s string) bool {
	if len(elementRe.FindAllString(s, -1)) >= 2 {
		return true
	}
	return strings.ContainsAny(s, "0123456789")
}

// PageSystems assigns a system to every page. A page naming a system gets it
// with high confidence; later pages without one carry it forward with low
// confidence. Pages before the first named system get none.
func PageSystems(pages []string) []domain.ChemicalSystem {
	out := make([]domain.ChemicalSystem, len(pages))
	current := ""
	for i, text := range pages {
		page := i + 1
		if found := Find(text); len(found) > 0 {
			current = found[0]
			out[i] = domain.ChemicalSystem{Name: current, Confidence: domain.SystemConfidenceHigh, Page: page}
			continue
		}
		if current == "" {
			out[i] = domain.ChemicalSystem{Confidence: domain.SystemConfidenceNone, Page: page}
			continue
		}
		out[i] = domain.ChemicalSystem{Name: current, Confidence: domain.SystemConfidenceLow, Page: page}
	}
	return out
}
