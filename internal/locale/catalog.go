// Package locale holds the translated texts of the digest: weekday names,
// the mail subject, the summarization prompt and the HTTP status messages.
package locale

import (
	"embed"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-taskdigest/internal/config"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Catalog translates message keys for one language.
// A nil *Catalog returns the keys themselves.
type Catalog struct {
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	lang      string
	languages []string
}

// New loads every embedded locale and selects lang.
// An unknown or empty lang falls back to Polish.
func New(lang string) *Catalog {
	bundle := i18n.NewBundle(language.Polish)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	c := &Catalog{bundle: bundle}

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}
		c.languages = append(c.languages, langCode)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
		)
	}

	if lang == "" {
		lang = config.DefaultLanguage
	}
	c.lang = lang
	c.localizer = i18n.NewLocalizer(bundle, lang, config.DefaultLanguage)
	return c
}

// Language is the requested language code.
func (c *Catalog) Language() string {
	if c == nil {
		return ""
	}
	return c.lang
}

// Languages lists the embedded locale codes.
func (c *Catalog) Languages() []string {
	if c == nil {
		return nil
	}
	return c.languages
}

// Msg translates key, returning key itself when it is unknown.
func (c *Catalog) Msg(key string) string {
	return c.MsgWith(key, nil)
}

// MsgWith translates key with template data.
func (c *Catalog) MsgWith(key string, data map[string]any) string {
	if c == nil || c.localizer == nil {
		return key
	}
	msg, err := c.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, key,
			config.LogKeyError, err,
		)
		if msg != "" {
			return msg
		}
		return key
	}
	return msg
}

// Weekday names wd in the catalog language.
func (c *Catalog) Weekday(wd time.Weekday) string {
	if wd < time.Sunday || wd > time.Saturday {
		return wd.String()
	}
	return c.Msg(config.WeekdayKeys[wd])
}

// Subject is the mail subject for a summary.
func (c *Catalog) Subject(dayOfWeek, date string) string {
	return c.MsgWith(config.TKeyMailSubject, map[string]any{
		"DayOfWeek": dayOfWeek,
		"Date":      date,
	})
}

func (c *Catalog) SystemPrompt() string {
	return c.Msg(config.TKeyPromptSystem)
}

// UserPrompt frames the anonymized tasks (already JSON encoded) for the model.
func (c *Catalog) UserPrompt(dayOfWeek, date, tasks string) string {
	return c.MsgWith(config.TKeyPromptUser, map[string]any{
		"DayOfWeek": dayOfWeek,
		"Date":      date,
		"Tasks":     tasks,
	})
}

// FallbackSummary is used when the model answers without content.
func (c *Catalog) FallbackSummary() string {
	return c.Msg(config.TKeySummaryFallback)
}
