package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"
	"github.com/tartampluch/go-taskdigest/internal/config"
	"github.com/tartampluch/go-taskdigest/internal/engine"
	"github.com/tartampluch/go-taskdigest/internal/feed"
	"github.com/tartampluch/go-taskdigest/internal/gauth"
	"github.com/tartampluch/go-taskdigest/internal/llm"
	"github.com/tartampluch/go-taskdigest/internal/locale"
	"github.com/tartampluch/go-taskdigest/internal/mailer"
	"github.com/tartampluch/go-taskdigest/internal/server"
	"github.com/tartampluch/go-taskdigest/internal/sheets"
	"github.com/tartampluch/go-taskdigest/internal/store"
	"google.golang.org/api/option"
)

// pipeline owns the long-lived dependencies and builds the per-run ones.
// An incomplete configuration does not stop the process: every run fails
// with the ConfigError instead, so the liveness probe stays green.
type pipeline struct {
	settings config.Settings
	catalog  *locale.Catalog
	cfgErr   error

	store      engine.SummaryStore
	closeStore func() error
}

func newPipeline(ctx context.Context, v *viper.Viper, configFile string) (*pipeline, error) {
	s, err := config.Load(v, configFile, config.KeyringLookup)
	if err != nil {
		return nil, err
	}

	p := &pipeline{
		settings: s,
		catalog:  locale.New(s.Language),
		cfgErr:   s.Validate(),
	}

	var cerr *config.ConfigError
	if errors.As(p.cfgErr, &cerr) {
		slog.Warn(config.MsgConfigInvalid,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyMissing, cerr.Missing,
			config.LogKeyInvalid, cerr.Invalid)
	}

	if p.cfgErr == nil {
		if err := p.openStore(ctx); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *pipeline) openStore(ctx context.Context) error {
	switch p.settings.StoreMode {
	case config.StoreModeLocal:
		p.store = store.NewFileStore(p.settings.LocalStorePath)
		p.closeStore = func() error { return nil }
	case config.StoreModeGCS:
		// Cloud Storage uses Application Default Credentials, not the user token.
		gcs, err := store.NewGCSStore(ctx, p.settings.GCSBucketName, p.settings.SummaryFileName)
		if err != nil {
			return err
		}
		p.store = gcs
		p.closeStore = gcs.Close
	default:
		return fmt.Errorf("%s: %s", config.ErrUnknownStoreMode, p.settings.StoreMode)
	}
	return nil
}

// Close releases the store client.
func (p *pipeline) Close() {
	if p.closeStore == nil {
		return
	}
	if err := p.closeStore(); err != nil {
		slog.Warn(config.ErrStoreClose,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err)
	}
}

// Feed returns the feed renderer, or nil when no store could be opened.
func (p *pipeline) Feed() server.FeedFunc {
	if p.store == nil {
		return nil
	}
	g := &feed.Generator{
		Clock:       engine.RealClock{},
		Store:       p.store,
		FormatTitle: p.catalog.Subject,
	}
	return g.Generate
}

// Run performs one daily run under the configured timeout.
func (p *pipeline) Run(ctx context.Context) (engine.Report, error) {
	if p.cfgErr != nil {
		return engine.Report{}, p.cfgErr
	}

	if p.settings.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.settings.RunTimeout)
		defer cancel()
	}

	runner, err := p.newRunner(ctx)
	if err != nil {
		return engine.Report{}, err
	}
	return runner.Run(ctx)
}

// newRunner builds the Google clients and the summarizer for one run.
// The access token is refreshed here, so a revoked grant fails fast.
func (p *pipeline) newRunner(ctx context.Context) (*engine.Runner, error) {
	s := p.settings

	httpClient, err := gauth.Client(ctx, gauth.Credentials{
		ClientID:     s.GoogleClientID,
		ClientSecret: s.GoogleClientSecret,
		RedirectURI:  s.GoogleRedirectURI,
		RefreshToken: s.GoogleRefreshToken,
	})
	if err != nil {
		return nil, err
	}

	sheet, err := sheets.New(ctx, s.SpreadsheetID, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}
	gmail, err := mailer.NewGmail(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}
	summarizer, err := p.newSummarizer(ctx)
	if err != nil {
		return nil, err
	}

	return &engine.Runner{
		Clock:         engine.RealClock{},
		Sheet:         sheet,
		Store:         p.store,
		Summarizer:    summarizer,
		Mailer:        gmail,
		WeekdayName:   p.catalog.Weekday,
		FormatSubject: p.catalog.Subject,
		Config: engine.RunConfig{
			SheetName:     s.SheetName,
			RangeSpec:     s.SheetRange,
			Recipient:     s.RecipientEmail,
			DayOffset:     s.TargetDayOffset,
			Location:      s.Location(),
			AppendNextRow: s.AppendNextRow,
		},
	}, nil
}

func (p *pipeline) newSummarizer(ctx context.Context) (engine.Summarizer, error) {
	s := p.settings
	slog.Debug(config.MsgLLMSelected,
		config.LogKeyComponent, config.CompMain,
		config.LogKeyProvider, s.LLMProvider)

	switch s.LLMProvider {
	case config.ProviderOpenAI:
		return llm.NewOpenAI(llm.OpenAIConfig{
			APIKey:  s.OpenAIAPIKey,
			BaseURL: s.OpenAIBaseURL,
			Model:   s.OpenAIModel,
			Prompts: p.catalog,
		}), nil
	case config.ProviderGemini:
		g, err := llm.NewGemini(ctx, llm.GeminiConfig{
			APIKey:  s.GeminiAPIKey,
			Model:   s.GeminiModel,
			Prompts: p.catalog,
		})
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("%s: %s", config.ErrUnknownProvider, s.LLMProvider)
	}
}
