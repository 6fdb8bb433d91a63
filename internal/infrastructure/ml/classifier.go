package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ArticleAugmenter/internal/config"
	"ArticleAugmenter/internal/domain"
	"ArticleAugmenter/internal/logging"
	"ArticleAugmenter/internal/ports"
)

// Classifier asks an external language identification service for the top
// guess of each chunk. Transport failures count as no guess.
type Classifier struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	http     *http.Client
	logger   *slog.Logger
}

var (
	_ ports.LanguageClassifier = (*Classifier)(nil)
	_ ports.ContextClassifier  = (*Classifier)(nil)
)

// NewClassifier creates a reusable HTTP client for cfg.Endpoint.
func NewClassifier(cfg config.DetectionConfig, client *http.Client, logger *slog.Logger) *Classifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Classifier{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		timeout:  timeout,
		http:     client,
		logger:   logger,
	}
}

type detectResponse struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// Classify posts the chunk to /detect.
func (c *Classifier) Classify(chunk string) domain.ClassificationResult {
	return c.ClassifyContext(context.Background(), chunk)
}

// ClassifyContext is Classify bounded by ctx and the configured timeout.
// Failures are logged and reported as no guess.
func (c *Classifier) ClassifyContext(ctx context.Context, chunk string) domain.ClassificationResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.Detect(ctx, chunk)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			c.logger.Debug("language detection cancelled", "endpoint", c.endpoint)
		} else {
			c.logger.Warn("language detection failed", "endpoint", c.endpoint, "error", err)
		}
		return domain.NoGuess
	}
	return result
}

// Detect is Classify with an explicit context and error.
func (c *Classifier) Detect(ctx context.Context, chunk string) (domain.ClassificationResult, error) {
	if c.endpoint == "" {
		return domain.NoGuess, fmt.Errorf("classifier endpoint is not configured")
	}

	var resp detectResponse
	if err := c.post(ctx, "/detect", map[string]any{"text": chunk}, &resp); err != nil {
		return domain.NoGuess, err
	}

	language := strings.ToLower(strings.TrimSpace(resp.Language))
	if language == "" || language == "unknown" || resp.Confidence <= 0 {
		return domain.NoGuess, nil
	}
	return domain.ClassificationResult{Language: language, Confidence: resp.Confidence, OK: true}, nil
}

func (c *Classifier) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
