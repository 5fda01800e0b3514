package engine

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// isWordRune is the Unicode-aware counterpart of regexp's \w.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// atBoundary reports whether byte offset i of s sits on a word boundary.
// RE2's \b only knows ASCII, which misses names such as "Łukasz".
func atBoundary(s string, i int) bool {
	before, after := false, false
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:i])
		before = isWordRune(r)
	}
	if i < len(s) {
		r, _ := utf8.DecodeRuneInString(s[i:])
		after = isWordRune(r)
	}
	return before != after
}

// replaceWholeWords replaces every non-overlapping match of re that starts and
// ends on a word boundary. Replaced text is not scanned again.
func replaceWholeWords(text string, re *regexp.Regexp, repl string) string {
	var b strings.Builder
	last, pos := 0, 0

	for pos < len(text) {
		loc := re.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if start == end {
			break
		}
		if atBoundary(text, start) && atBoundary(text, end) {
			b.WriteString(text[last:start])
			b.WriteString(repl)
			last, pos = end, end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		pos = start + size
	}

	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

// literalPattern compiles s as a case-insensitive literal.
func literalPattern(s string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(s))
}
