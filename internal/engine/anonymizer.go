package engine

import (
	"fmt"
	"regexp"

	"github.com/tartampluch/go-taskdigest/internal/config"
)

// Pair links one placeholder to the name it hides.
type Pair struct {
	Placeholder string
	Original    string
}

// Mapping is the placeholder -> original name table of one run, in creation order.
type Mapping struct {
	pairs []Pair
}

func (m *Mapping) add(placeholder, original string) {
	m.pairs = append(m.pairs, Pair{Placeholder: placeholder, Original: original})
}

// Pairs returns the mapping in creation order.
func (m Mapping) Pairs() []Pair {
	return append([]Pair(nil), m.pairs...)
}

// Original looks up the name behind a placeholder.
func (m Mapping) Original(placeholder string) (string, bool) {
	for _, p := range m.pairs {
		if p.Placeholder == placeholder {
			return p.Original, true
		}
	}
	return "", false
}

func (m Mapping) Len() int { return len(m.pairs) }

// AnonymizationResult is the record safe to disclose plus the way back.
type AnonymizationResult struct {
	Record                AssignmentRecord
	PlaceholderToOriginal Mapping
}

// Anonymize replaces every person name with a pracownik_N placeholder, both as
// map key and inside every task text. Numbers follow header order from 1.
func Anonymize(rec AssignmentRecord) AnonymizationResult {
	var (
		mapping  Mapping
		names    []string
		patterns []*regexp.Regexp
	)
	toPlaceholder := make(map[string]string)

	for _, name := range rec.TasksByPerson.Keys() {
		if _, seen := toPlaceholder[name]; seen {
			continue
		}
		placeholder := fmt.Sprintf("%s%d", config.PlaceholderPrefix, len(names)+1)
		toPlaceholder[name] = placeholder
		names = append(names, name)
		patterns = append(patterns, literalPattern(name))
		mapping.add(placeholder, name)
	}

	scrubbed := NewTaskMap()
	for _, name := range names {
		text, _ := rec.TasksByPerson.Get(name)
		for i, other := range names {
			text = replaceWholeWords(text, patterns[i], toPlaceholder[other])
		}
		scrubbed.Set(toPlaceholder[name], text)
	}

	return AnonymizationResult{
		Record: AssignmentRecord{
			Date:          rec.Date,
			DayOfWeek:     rec.DayOfWeek,
			TasksByPerson: scrubbed,
		},
		PlaceholderToOriginal: mapping,
	}
}
