package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Process.Concurrency < 1 {
		return fmt.Errorf("process.concurrency must be >= 1, got %d", cfg.Process.Concurrency)
	}
	if cfg.Process.Concurrency > 256 {
		return fmt.Errorf("process.concurrency must be <= 256, got %d", cfg.Process.Concurrency)
	}
	if cfg.Process.RequestTimeout <= 0 {
		return fmt.Errorf("process.request_timeout must be > 0")
	}
	if cfg.Process.MaxRetries < 0 {
		return fmt.Errorf("process.max_retries must be >= 0, got %d", cfg.Process.MaxRetries)
	}

	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}
	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}

	if cfg.Translator.Enabled && cfg.Translator.Endpoint == "" {
		return fmt.Errorf("translator.endpoint is required when the translator is enabled")
	}

	if cfg.Judge.Mode != "heuristic" && cfg.Judge.Mode != "llm" {
		return fmt.Errorf("judge.mode must be 'heuristic' or 'llm', got %q", cfg.Judge.Mode)
	}
	if cfg.Judge.Mode == "llm" {
		valid := map[string]bool{"ollama": true, "openai": true, "custom": true}
		if !valid[cfg.Judge.Provider] {
			return fmt.Errorf("judge.provider must be ollama/openai/custom, got %q", cfg.Judge.Provider)
		}
	}

	validFormats := map[string]bool{
		"csv": true, "jsonl": true, "text": true, "mongodb": true,
	}
	if len(cfg.Storage.Formats) == 0 {
		return fmt.Errorf("storage.formats must list at least one output")
	}
	for _, format := range cfg.Storage.Formats {
		if !validFormats[format] {
			return fmt.Errorf("storage format %q is not supported (valid: csv, jsonl, text, mongodb)", format)
		}
		if format == "mongodb" && cfg.Storage.MongoURI == "" {
			return fmt.Errorf("storage.mongo_uri is required for the mongodb format")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is fetchable.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
