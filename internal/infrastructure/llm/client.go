package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"ArticleAugmenter/internal/config"
	"ArticleAugmenter/internal/logging"
	"ArticleAugmenter/internal/ports"
)

const (
	geminiBaseURL       = "https://generativelanguage.googleapis.com/v1beta/openai"
	defaultOpenAIModel  = "gpt-5-mini"
	defaultGeminiModel  = "gemini-flash-latest"
	probeOpenAIModel    = "gpt-3.5-turbo"
	probeGeminiModel    = "gemini-pro"
	connectionProbeText = "Hello, this is a test connection."
)

// GenerationError carries the user-facing failure text synthesized from the
// remote response or error.
type GenerationError struct {
	Message string
	Err     error
}

func (e *GenerationError) Error() string { return e.Message }

func (e *GenerationError) Unwrap() error { return e.Err }

// Client implements ports.TextAPI backed by OpenAI-compatible chat completions.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

var _ ports.TextAPI = (*Client)(nil)

// NewClient builds a client; settings arrive with each request.
func NewClient(cfg config.AIConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}
}

// DefaultModel picks the summary/translation model when settings leave it empty.
func DefaultModel(settings config.AIConfig) string {
	if m := strings.TrimSpace(settings.Model); m != "" {
		return m
	}
	if settings.Provider == config.ProviderGemini {
		return defaultGeminiModel
	}
	return defaultOpenAIModel
}

func probeModel(settings config.AIConfig) string {
	if m := strings.TrimSpace(settings.Model); m != "" {
		return m
	}
	if settings.Provider == config.ProviderGemini {
		return probeGeminiModel
	}
	return probeOpenAIModel
}

// Summarize asks for a concise summary in the target language.
func (c *Client) Summarize(ctx context.Context, req ports.SummaryRequest) (string, error) {
	resp, err := c.complete(ctx, req.Settings, openai.ChatCompletionRequest{
		Model: DefaultModel(req.Settings),
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("You are a helpful assistant that summarizes RSS articles. Use %s for the summary.", req.TargetLanguage),
			},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Please provide a concise summary of the following article titled \"%s\" in %s.\n\nContent:\n%s",
					req.Title, req.TargetLanguage, req.PlainText),
			},
		},
	})
	if err != nil {
		return "", err
	}

	text, reason := firstChoice(resp)
	if text == "" {
		if reason == "" {
			reason = "empty response"
		}
		return "", &GenerationError{Message: fmt.Sprintf("Failed to generate summary. (Reason: %s)", reason)}
	}
	return text, nil
}

// Translate sends the ordinal-keyed JSON body and returns the model's JSON reply.
// An empty reply degrades to "{}".
func (c *Client) Translate(ctx context.Context, req ports.TranslationRequest) (string, error) {
	resp, err := c.complete(ctx, req.Settings, openai.ChatCompletionRequest{
		Model: DefaultModel(req.Settings),
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("You are a professional translator. Translate the values in the following JSON object into %s. "+
					"Keep the keys unchanged and return only the translated JSON object. "+
					"Do not include any other text or markdown formatting in your response.", req.TargetLanguage),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: "JSON to translate:\n" + req.JSONBody,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", err
	}

	text, _ := firstChoice(resp)
	if text == "" {
		return "{}", nil
	}
	return text, nil
}

// TestConnection issues a tiny completion to validate key, endpoint and model.
func (c *Client) TestConnection(ctx context.Context, settings config.AIConfig) error {
	_, err := c.complete(ctx, settings, openai.ChatCompletionRequest{
		Model:     probeModel(settings),
		MaxTokens: 5,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: connectionProbeText},
		},
	})
	return err
}

func (c *Client) complete(ctx context.Context, settings config.AIConfig, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if c == nil {
		return openai.ChatCompletionResponse{}, fmt.Errorf("llm client is nil")
	}
	if strings.TrimSpace(settings.APIKey) == "" {
		return openai.ChatCompletionResponse{}, &GenerationError{Message: "Error: API key is not configured (missing_api_key)"}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return openai.ChatCompletionResponse{}, fmt.Errorf("wait for rate limiter: %w", err)
	}

	client := openai.NewClientWithConfig(c.clientConfig(settings))
	start := time.Now()
	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		c.logger.Warn("chat completion failed", "model", req.Model, "provider", settings.Provider, "error", err)
		return openai.ChatCompletionResponse{}, describe(err)
	}
	c.logger.Debug("chat completion done", "model", req.Model, "elapsed", time.Since(start))
	return resp, nil
}

func (c *Client) clientConfig(settings config.AIConfig) openai.ClientConfig {
	cfg := openai.DefaultConfig(settings.APIKey)
	switch {
	case strings.TrimSpace(settings.APIURL) != "":
		cfg.BaseURL = strings.TrimRight(settings.APIURL, "/")
	case settings.Provider == config.ProviderGemini:
		cfg.BaseURL = geminiBaseURL
	}
	cfg.HTTPClient = c.httpClient
	return cfg
}

func firstChoice(resp openai.ChatCompletionResponse) (string, string) {
	if len(resp.Choices) == 0 {
		return "", ""
	}
	choice := resp.Choices[0]
	return strings.TrimSpace(choice.Message.Content), string(choice.FinishReason)
}

// describe renders remote failures as "Error: msg (code)".
func describe(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := fmt.Sprint(apiErr.Code)
		if apiErr.Code == nil {
			code = fmt.Sprint(apiErr.HTTPStatusCode)
		}
		return &GenerationError{Message: fmt.Sprintf("Error: %s (%s)", apiErr.Message, code), Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &GenerationError{Message: fmt.Sprintf("Error: %v (%d)", reqErr.Err, reqErr.HTTPStatusCode), Err: err}
	}

	return &GenerationError{Message: fmt.Sprintf("Error: %v (unknown)", err), Err: err}
}
