// Package translate normalizes Portuguese product text to Spanish using a
// LibreTranslate-compatible endpoint, with language detection deciding which
// fields need it.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"mercascan/internal/types"
)

// Translator turns source-language text into target-language text.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// retryableStatuses are transient LibreTranslate responses worth retrying.
var retryableStatuses = map[int]bool{
	http.StatusTooManyRequests:    true,
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
	520:                           true, // Cloudflare: unknown origin error
	522:                           true, // Cloudflare: origin connection timeout
}

// LibreConfig configures the LibreTranslate client.
type LibreConfig struct {
	Endpoint   string
	APIKey     string
	Source     string
	Target     string
	MaxRetries int
	Timeout    time.Duration
}

// LibreClient is a retrying client for a LibreTranslate-compatible API.
type LibreClient struct {
	cfg    LibreConfig
	client *http.Client
	logger *slog.Logger
}

// NewLibreClient creates a translation client. Source/target default to
// pt→es, the corpus's dominant translation direction.
func NewLibreClient(cfg LibreConfig, logger *slog.Logger) *LibreClient {
	if cfg.Source == "" {
		cfg.Source = "pt"
	}
	if cfg.Target == "" {
		cfg.Target = "es"
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &LibreClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With("component", "libre_client"),
	}
}

// Translate sends the text to the endpoint, retrying transient failures
// with exponential backoff. Non-transient API errors fail immediately.
func (c *LibreClient) Translate(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", nil
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(time.Second) * math.Pow(1.5, float64(attempt)))
			c.logger.Debug("retrying translation", "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		result, retryable, err := c.doTranslate(ctx, text)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %v", types.ErrMaxRetries, lastErr)
}

func (c *LibreClient) doTranslate(ctx context.Context, text string) (result string, retryable bool, err error) {
	payload := map[string]string{
		"q":      text,
		"source": c.cfg.Source,
		"target": c.cfg.Target,
		"format": "text",
	}
	if c.cfg.APIKey != "" {
		payload["api_key"] = c.cfg.APIKey
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.Endpoint+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("translate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", retryableStatuses[resp.StatusCode],
			fmt.Errorf("translate endpoint returned %d", resp.StatusCode)
	}

	var decoded struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", false, fmt.Errorf("decode translate response: %w", err)
	}
	return decoded.TranslatedText, false, nil
}
