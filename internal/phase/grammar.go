// Package phase separates solid-phase annotations from measured values.
package phase

import (
	"regexp"
	"strings"

	"soltab/internal/domain"
)

// atom is a letter phase A-F with an optional decimal sub-label ("D0.5"),
// or a Roman numeral I-VI.
const atom = `(?:[A-F](?:\d+(?:\.\d+)?)?|VI|IV|V|I{1,3})`

const label = atom + `(?:\+` + atom + `)*`

var (
	labelRe  = regexp.MustCompile(`^` + label + `$`)
	parenRe  = regexp.MustCompile(`^(.*?)\s*\(\s*(` + label + `)\s*\)$`)
	spacedRe = regexp.MustCompile(`^(.*\S)\s+(` + atom + `)$`)
	joinedRe = regexp.MustCompile(`^(.*\S)\s+(` + atom + `(?:\+` + atom + `)+)$`)
	dashRe   = regexp.MustCompile(`^[-‐‑‒–—―]+$`)
)

// IsLabel reports whether s is a complete phase label such as "A", "II",
// "D0.5" or "A+B".
func IsLabel(s string) bool {
	return labelRe.MatchString(strings.TrimSpace(s))
}

// IsDashSentinel reports whether s is a run of dashes meaning "no data".
func IsDashSentinel(s string) bool {
	return dashRe.MatchString(strings.TrimSpace(s))
}

// Split separates a trailing phase label from a cell. The residual value is
// nil when nothing remains or the cell is a dash sentinel.
func Split(text *string) (*string, domain.PhaseLabel) {
	if text == nil {
		return nil, ""
	}
	t := strings.TrimSpace(*text)
	if t == "" || dashRe.MatchString(t) {
		return nil, ""
	}
	if labelRe.MatchString(t) {
		return nil, domain.PhaseLabel(t)
	}
	for _, re := range []*regexp.Regexp{parenRe, spacedRe, joinedRe} {
		if m := re.FindStringSubmatch(t); m != nil {
			return residual(m[1]), domain.PhaseLabel(m[2])
		}
	}
	return &t, ""
}

// HasSuffix reports whether text carries a phase label after some value.
// Bare labels do not count.
func HasSuffix(text string) bool {
	t := strings.TrimSpace(text)
	return parenRe.MatchString(t) || spacedRe.MatchString(t) || joinedRe.MatchString(t)
}

func residual(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" || dashRe.MatchString(s) {
		return nil
	}
	return &s
}
