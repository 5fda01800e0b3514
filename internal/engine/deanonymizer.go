package engine

import (
	"regexp"
	"strings"

	"github.com/tartampluch/go-taskdigest/internal/config"
)

// RuleKind selects how a placeholder is found in model output.
type RuleKind int

const (
	// RuleExact matches the placeholder text itself, ignoring case.
	RuleExact RuleKind = iota
	// RuleTolerant also accepts a space instead of the underscore and a
	// changed first letter case, e.g. "Pracownik 1".
	RuleTolerant
)

func (k RuleKind) String() string {
	if k == RuleTolerant {
		return "tolerant"
	}
	return "exact"
}

// Rule restores one original name.
type Rule struct {
	Kind        RuleKind
	Placeholder string
	Original    string
	pattern     *regexp.Regexp
}

// RuleFor picks the rule for a placeholder. Only "base_number" placeholders
// get the tolerant pattern.
func RuleFor(placeholder, original string) Rule {
	parts := strings.Split(placeholder, config.PlaceholderSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Rule{
			Kind:        RuleExact,
			Placeholder: placeholder,
			Original:    original,
			pattern:     literalPattern(placeholder),
		}
	}

	base, number := parts[0], parts[1]
	first, rest := splitFirstRune(base)
	expr := "(?i)(?:" + regexp.QuoteMeta(strings.ToLower(first)) + "|" + regexp.QuoteMeta(strings.ToUpper(first)) + ")" +
		regexp.QuoteMeta(rest) + "[_ ]" + regexp.QuoteMeta(number)

	return Rule{
		Kind:        RuleTolerant,
		Placeholder: placeholder,
		Original:    original,
		pattern:     regexp.MustCompile(expr),
	}
}

// Apply replaces every whole-word occurrence of the placeholder in text.
func (r Rule) Apply(text string) string {
	if r.pattern == nil {
		return text
	}
	return replaceWholeWords(text, r.pattern, r.Original)
}

// Deanonymize puts the original names back into free text.
// Placeholders are handled in mapping order, one pass each.
func Deanonymize(text string, m Mapping) string {
	for _, p := range m.Pairs() {
		text = RuleFor(p.Placeholder, p.Original).Apply(text)
	}
	return text
}

func splitFirstRune(s string) (string, string) {
	for i := range s {
		if i > 0 {
			return s[:i], s[i:]
		}
	}
	return s, ""
}
