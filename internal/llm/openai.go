package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tartampluch/go-taskdigest/internal/config"
	"github.com/tartampluch/go-taskdigest/internal/engine"
	"github.com/tartampluch/go-taskdigest/internal/locale"
)

// OpenAIConfig configures the chat completions client.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// Backoff is the first retry delay after a 429; it doubles on each retry.
	Backoff    time.Duration
	HTTPClient *http.Client
	Prompts    PromptFormatter
}

// OpenAI summarizes through an OpenAI-compatible /chat/completions endpoint.
type OpenAI struct {
	apiKey     string
	baseURL    string
	model      string
	backoff    time.Duration
	httpClient *http.Client
	prompts    PromptFormatter
}

var _ engine.Summarizer = (*OpenAI)(nil)

// NewOpenAI fills unset fields with the package defaults.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	c := &OpenAI{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		backoff:    cfg.Backoff,
		httpClient: cfg.HTTPClient,
		prompts:    cfg.Prompts,
	}
	if c.baseURL == "" {
		c.baseURL = config.DefaultOpenAIBaseURL
	}
	if c.model == "" {
		c.model = config.DefaultOpenAIModel
	}
	if c.backoff <= 0 {
		c.backoff = config.LLMRetryBaseBackoff
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: config.LLMTimeout}
	}
	if c.prompts == nil {
		c.prompts = locale.New(config.DefaultLanguage)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	Temperature      float64       `json:"temperature"`
	MaxTokens        int           `json:"max_tokens"`
	TopP             float64       `json:"top_p"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
	PresencePenalty  float64       `json:"presence_penalty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// statusError is a non-2xx answer that is not worth retrying.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: %d: %s", config.ErrLLMStatus, e.code, e.body)
}

var errRateLimited = errors.New(config.ErrLLMRateLimit)

// Summarize implements engine.Summarizer.
func (c *OpenAI) Summarize(ctx context.Context, rec engine.AssignmentRecord) (string, error) {
	if c.apiKey == "" {
		return "", errors.New(config.ErrLLMKeyMissing)
	}

	prompt, err := BuildPrompt(rec, c.prompts)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: config.LLMRoleSystem, Content: prompt.System},
			{Role: config.LLMRoleUser, Content: prompt.User},
		},
		Temperature: config.LLMTemperature,
		MaxTokens:   config.LLMMaxTokens,
		TopP:        config.LLMTopP,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrLLMRequest, err)
	}

	log := slog.With(
		config.LogKeyComponent, config.CompLLM,
		config.LogKeyProvider, config.ProviderOpenAI,
		config.LogKeyModel, c.model,
	)

	var lastErr error
	for attempt := 0; attempt <= config.LLMMaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff << (attempt - 1)
			log.WarnContext(ctx, config.MsgLLMRetry,
				config.LogKeyAttempt, attempt,
				config.LogKeyError, lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		log.DebugContext(ctx, config.MsgLLMRequest, config.LogKeyAttempt, attempt+1)
		text, err := c.complete(ctx, payload)
		if err == nil {
			if text == "" {
				log.WarnContext(ctx, config.MsgLLMEmpty)
				return fallback(c.prompts), nil
			}
			log.InfoContext(ctx, config.MsgLLMResponse, config.LogKeySizeBytes, len(text))
			return text, nil
		}

		var se *statusError
		if errors.As(err, &se) || ctx.Err() != nil {
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf("%s: %w", config.ErrLLMRetries, lastErr)
}

// complete performs one HTTP round trip. Rate limits and transport failures
// are returned as retryable errors, other statuses as *statusError.
func (c *OpenAI) complete(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+config.OpenAIChatPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrLLMRequest, err)
	}
	req.Header.Set(config.HeaderContentType, config.MimeJSON)
	req.Header.Set(config.HeaderAuthorization, config.AuthBearerPrefix+c.apiKey)
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrLLMRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, config.MaxHTTPResponseSize))
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrLLMRequest, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", errRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return "", &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &statusError{code: resp.StatusCode, body: fmt.Sprintf("%s: %v", config.ErrLLMDecode, err)}
	}
	if out.Error != nil {
		return "", &statusError{code: resp.StatusCode, body: out.Error.Message}
	}
	if len(out.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
