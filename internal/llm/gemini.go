package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tartampluch/go-taskdigest/internal/config"
	"github.com/tartampluch/go-taskdigest/internal/engine"
	"github.com/tartampluch/go-taskdigest/internal/locale"
	"google.golang.org/genai"
)

// GeminiConfig configures the Gemini client.
type GeminiConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint (tests).
	BaseURL    string
	HTTPClient *http.Client
	Prompts    PromptFormatter
}

// Gemini summarizes with the Gemini API through the genai SDK.
type Gemini struct {
	client  *genai.Client
	model   string
	prompts PromptFormatter
}

var _ engine.Summarizer = (*Gemini)(nil)

// NewGemini creates the genai client. No request is made.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(config.ErrLLMKeyMissing)
	}
	if cfg.Model == "" {
		cfg.Model = config.DefaultGeminiModel
	}
	if cfg.Prompts == nil {
		cfg.Prompts = locale.New(config.DefaultLanguage)
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrGeminiClient, err)
	}
	return &Gemini{client: client, model: cfg.Model, prompts: cfg.Prompts}, nil
}

// Summarize implements engine.Summarizer.
func (g *Gemini) Summarize(ctx context.Context, rec engine.AssignmentRecord) (string, error) {
	prompt, err := BuildPrompt(rec, g.prompts)
	if err != nil {
		return "", err
	}

	log := slog.With(
		config.LogKeyComponent, config.CompLLM,
		config.LogKeyProvider, config.ProviderGemini,
		config.LogKeyModel, g.model,
	)
	log.DebugContext(ctx, config.MsgLLMRequest)

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(prompt.User),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(prompt.System, genai.RoleUser),
			Temperature:       genai.Ptr[float32](config.LLMTemperature),
			TopP:              genai.Ptr[float32](config.LLMTopP),
			MaxOutputTokens:   config.LLMMaxTokens,
			// Thinking would spend the small output budget before any text.
			ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)},
		})
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrLLMRequest, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		log.WarnContext(ctx, config.MsgLLMEmpty)
		return fallback(g.prompts), nil
	}
	log.InfoContext(ctx, config.MsgLLMResponse, config.LogKeySizeBytes, len(text))
	return text, nil
}
