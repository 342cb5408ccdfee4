package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// RuleKind selects how a Rule rewrites text.
type RuleKind int

const (
	// RuleUnicode folds compatibility characters (full-width digits, ligatures).
	RuleUnicode RuleKind = iota
	// RuleRegex replaces every match of Pattern with Replace until stable.
	RuleRegex
	// RuleLiteral replaces the literal substring Pattern with Replace.
	RuleLiteral
	// RuleTrim strips surrounding whitespace.
	RuleTrim
)

// Rule is one entry of the normalization table.
type Rule struct {
	Name    string
	Kind    RuleKind
	Pattern string
	Replace string

	re *regexp.Regexp
}

// maxRulePasses bounds fixpoint iteration of a single regex rule.
const maxRulePasses = 16

func (r *Rule) apply(s string) string {
	switch r.Kind {
	case RuleUnicode:
		return norm.NFKC.String(s)
	case RuleRegex:
		for i := 0; i < maxRulePasses; i++ {
			next := r.re.ReplaceAllString(s, r.Replace)
			if next == s {
				break
			}
			s = next
		}
		return s
	case RuleLiteral:
		return strings.ReplaceAll(s, r.Pattern, r.Replace)
	case RuleTrim:
		return strings.TrimSpace(s)
	}
	return s
}

// RuleSet is a versioned, ordered list of rules.
type RuleSet struct {
	Version string
	Rules   []Rule
}

// DefaultRuleSet returns the built-in OCR repair table. Order matters:
// markers are canonicalized before number repairs so the phase splitter can
// still find them afterwards.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Version: "2",
		Rules: []Rule{
			{Name: "unicode-fold", Kind: RuleUnicode},
			{Name: "minus-sign", Kind: RuleLiteral, Pattern: "\u2212", Replace: "-"},
			{Name: "trim-leading", Kind: RuleTrim},
			{
				Name:    "reference-marker",
				Kind:    RuleRegex,
				Pattern: `^([-+]?[0-9][0-9.,\s]*?)\s*[(\[]\s*([A-Z][\w.+]*?)\s*[)\]]$`,
				Replace: "${1} (${2})",
			},
			{Name: "decimal-comma", Kind: RuleRegex, Pattern: `(\d),(\d)`, Replace: "${1}.${2}"},
			{Name: "space-before-point", Kind: RuleRegex, Pattern: `(\d)\s+\.`, Replace: "${1}."},
			{Name: "space-between-digits", Kind: RuleRegex, Pattern: `(\d)\s+(\d)`, Replace: "${1}${2}"},
			{Name: "space-after-point", Kind: RuleRegex, Pattern: `\.\s+(\d)`, Replace: ".${1}"},
			{Name: "mol-unit", Kind: RuleLiteral, Pattern: "mo1", Replace: "mol"},
			{Name: "kg-unit", Kind: RuleLiteral, Pattern: "mol/kq", Replace: "mol/kg"},
			{Name: "q-zero", Kind: RuleLiteral, Pattern: "Q .", Replace: "0."},
			{Name: "a-zero", Kind: RuleLiteral, Pattern: "a .", Replace: "0."},
			{Name: "roman-two", Kind: RuleLiteral, Pattern: "I I", Replace: "II"},
			{Name: "so-fifty", Kind: RuleLiteral, Pattern: "0. so", Replace: "0.50"},
			{Name: "point-so-fifty", Kind: RuleLiteral, Pattern: ". so", Replace: ".50"},
			{Name: "o-zero-leading", Kind: RuleLiteral, Pattern: "O.0", Replace: "0.0"},
			{Name: "o-zero-trailing", Kind: RuleLiteral, Pattern: "0.O", Replace: "0.0"},
			{Name: "l-one-leading", Kind: RuleLiteral, Pattern: "l.0", Replace: "1.0"},
			{Name: "l-one-trailing", Kind: RuleLiteral, Pattern: "0.l", Replace: "0.1"},
			{Name: "trim", Kind: RuleTrim},
		},
	}
}
