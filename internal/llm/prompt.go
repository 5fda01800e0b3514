// Package llm implements engine.Summarizer on top of hosted language models.
package llm

import (
	"encoding/json"
	"fmt"

	"github.com/tartampluch/go-taskdigest/internal/config"
	"github.com/tartampluch/go-taskdigest/internal/engine"
)

// PromptFormatter supplies the localized prompt texts. locale.Catalog implements it.
type PromptFormatter interface {
	SystemPrompt() string
	UserPrompt(dayOfWeek, date, tasks string) string
	FallbackSummary() string
}

// Prompt is one system + user message pair.
type Prompt struct {
	System string
	User   string
}

// BuildPrompt frames an anonymized record. The tasks are embedded as
// indented JSON so the model sees the placeholders exactly as stored.
func BuildPrompt(rec engine.AssignmentRecord, f PromptFormatter) (Prompt, error) {
	tasks, err := json.MarshalIndent(rec.TasksByPerson, "", config.JSONIndent)
	if err != nil {
		return Prompt{}, fmt.Errorf("%s: %w", config.ErrPromptEncode, err)
	}

	var date string
	if d, ok := rec.Date.Get(); ok {
		date = d.String()
	}

	return Prompt{
		System: f.SystemPrompt(),
		User:   f.UserPrompt(rec.DayOfWeek.OrElse(""), date, string(tasks)),
	}, nil
}

func fallback(f PromptFormatter) string {
	if f == nil {
		return config.FallbackSummary
	}
	if s := f.FallbackSummary(); s != "" {
		return s
	}
	return config.FallbackSummary
}
