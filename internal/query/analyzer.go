// Package query derives cheap lexical signals from raw query text before
// any provider call is made: normalized tokens, a detected intent, the
// procedural-question flag, and a department tag for contact routing.
package query

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/vantor-labs/repliq/internal/domain"
)

// Rule pairs an intent or department label with the pattern that detects it.
// Rules are evaluated in order and the first match wins, so a rule list must
// be ordered most-specific-first.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// Analyzer runs the full signal extraction over a query
type Analyzer struct {
	intentRules     []Rule
	departmentRules []Rule
}

// NewAnalyzer creates an Analyzer with the stock rule sets
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWithRules(DefaultIntentRules(), DefaultDepartmentRules())
}

// NewAnalyzerWithRules creates an Analyzer with caller-supplied rule sets.
// Passing nil for either list disables that detector.
func NewAnalyzerWithRules(intentRules, departmentRules []Rule) *Analyzer {
	return &Analyzer{
		intentRules:     intentRules,
		departmentRules: departmentRules,
	}
}

// Analyze extracts all signals from raw query text. It is pure and cheap;
// no provider call happens here.
func (a *Analyzer) Analyze(raw string) domain.QueryAnalysis {
	lower := strings.ToLower(strings.TrimSpace(raw))
	return domain.QueryAnalysis{
		Tokens:       Tokenize(raw),
		Intent:       firstMatch(a.intentRules, lower),
		IsProcedural: IsProcedural(lower),
		Department:   firstMatch(a.departmentRules, lower),
	}
}

// firstMatch returns the name of the first rule whose pattern matches, or ""
func firstMatch(rules []Rule, lower string) string {
	for _, rule := range rules {
		if rule.Pattern.MatchString(lower) {
			return rule.Name
		}
	}
	return ""
}

// Tokenize lower-cases the text, strips non-word runes, splits on
// whitespace, and drops tokens of length two or less. The tokens feed
// keyword-boost matching only, never the embedding call.
func Tokenize(raw string) []string {
	lower := strings.ToLower(raw)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// proceduralPhrases are the process-oriented markers that flag a query as
// asking for a procedure rather than a fact
var proceduralPhrases = []string{
	"how to",
	"steps",
	"procedure",
	"guide",
	"instructions",
	"set up",
	"arrange",
	"organize",
}

// leadingSequencePattern catches questions that open with a sequencing word,
// e.g. "first I installed it, then what?"
var leadingSequencePattern = regexp.MustCompile(`^\s*(first|next|then|finally)\b.*\?\s*$`)

// IsProcedural reports whether lower-cased query text asks for a procedure
func IsProcedural(lower string) bool {
	for _, phrase := range proceduralPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return leadingSequencePattern.MatchString(lower)
}
