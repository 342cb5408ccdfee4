// Package normalize repairs OCR damage in individual table cells.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
)

// maxTablePasses bounds re-running the whole rule table until it is stable.
const maxTablePasses = 8

// Normalizer applies a RuleSet to cell text. It is safe for concurrent use.
type Normalizer struct {
	version string
	rules   []Rule
}

// New compiles a rule set into a Normalizer.
func New(rs RuleSet) (*Normalizer, error) {
	rules := make([]Rule, len(rs.Rules))
	for i, r := range rs.Rules {
		if r.Kind == RuleRegex {
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				return nil, fmt.Errorf("compiling rule %q: %w", r.Name, err)
			}
			r.re = re
		}
		rules[i] = r
	}
	return &Normalizer{version: rs.Version, rules: rules}, nil
}

// Default returns a Normalizer for DefaultRuleSet.
func Default() *Normalizer {
	n, err := New(DefaultRuleSet())
	if err != nil {
		panic(err)
	}
	return n
}

// Version identifies the rule table in use.
func (n *Normalizer) Version() string { return n.version }

// Normalize returns the cleaned text of a cell. Null and NaN cells stay null.
func (n *Normalizer) Normalize(raw *string) *string {
	if raw == nil || isNaN(*raw) {
		return nil
	}
	out := n.Text(*raw)
	return &out
}

// Text runs the rule table over s until the output stops changing.
func (n *Normalizer) Text(s string) string {
	for pass := 0; pass < maxTablePasses; pass++ {
		next := s
		for i := range n.rules {
			next = n.rules[i].apply(next)
		}
		if next == s {
			break
		}
		s = next
	}
	return s
}

func isNaN(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nan", "<na>", "none", "null":
		return true
	}
	return false
}
