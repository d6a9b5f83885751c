// Package summarize turns transcript text into structured meeting summaries.
// Two providers are supported: an OpenAI-compatible chat endpoint (OpenRouter
// by default) and Gemini. Both share the prompt, fence stripping and
// normalization in this package.
package summarize

import (
	"context"
	"fmt"
	"time"

	"github.com/otherjamesbrown/meetsum/pkg/ingest/storage"
	"github.com/otherjamesbrown/meetsum/pkg/logging"
)

// Result is the normalized summary produced by a Summarizer.
type Result = storage.SummaryContent

// Summarizer produces a structured summary of a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (*Result, error)
}

// Provider names accepted in Config.Provider.
const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

// Defaults applied by Config.WithDefaults.
const (
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultOpenRouterModel   = "openai/gpt-3.5-turbo"
	DefaultGeminiModel       = "gemini-2.5-flash"
	DefaultTemperature       = 0.2
	DefaultMaxTokens         = 2000
	DefaultTimeout           = 120 * time.Second
	DefaultAppURL            = "http://localhost:3000"
	DefaultMaxRetries        = 1
)

// Config configures a summarization provider.
type Config struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
	AppURL      string
}

// WithDefaults fills unset fields with the provider defaults.
func (c Config) WithDefaults() Config {
	if c.Provider == "" {
		c.Provider = ProviderOpenRouter
	}
	if c.Model == "" {
		if c.Provider == ProviderGemini {
			c.Model = DefaultGeminiModel
		} else {
			c.Model = DefaultOpenRouterModel
		}
	}
	if c.BaseURL == "" && c.Provider == ProviderOpenRouter {
		c.BaseURL = DefaultOpenRouterBaseURL
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.AppURL == "" {
		c.AppURL = DefaultAppURL
	}
	return c
}

// New builds the provider client named by cfg.Provider. The result is not
// wrapped in WithRetry.
func New(ctx context.Context, cfg Config, logger logging.Logger) (Summarizer, error) {
	cfg = cfg.WithDefaults()
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for LLM provider %q", cfg.Provider)
	}

	switch cfg.Provider {
	case ProviderOpenRouter:
		return NewOpenRouterClient(cfg, logger), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
