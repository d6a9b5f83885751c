package summarize

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	pferrors "github.com/otherjamesbrown/meetsum/pkg/errors"
	"github.com/otherjamesbrown/meetsum/pkg/logging"
)

// GeminiClient summarizes with the Gemini API.
type GeminiClient struct {
	client *genai.Client
	config Config
	logger logging.Logger
}

// NewGeminiClient creates a Gemini client. A non-empty cfg.BaseURL overrides
// the API endpoint.
func NewGeminiClient(ctx context.Context, cfg Config, logger logging.Logger) (*GeminiClient, error) {
	cfg.Provider = ProviderGemini
	cfg = cfg.WithDefaults()

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: cfg,
		logger: logger.With(logging.F("component", "gemini"), logging.F("model", cfg.Model)),
	}, nil
}

// Name returns the provider identifier.
func (c *GeminiClient) Name() string {
	return fmt.Sprintf("gemini-%s", c.config.Model)
}

// Summarize sends the transcript and returns the normalized summary.
func (c *GeminiClient) Summarize(ctx context.Context, text string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	result, err := c.client.Models.GenerateContent(
		ctx,
		c.config.Model,
		genai.Text(BuildPrompt(text)),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: SystemPrompt}}},
			Temperature:       genai.Ptr(c.config.Temperature),
			MaxOutputTokens:   int32(c.config.MaxTokens),
		},
	)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			c.logger.Error("LLM API error",
				logging.F("status", apiErr.Code),
				logging.F("message", apiErr.Message))
			return nil, &pferrors.LLMAPIError{StatusCode: apiErr.Code, Message: apiErr.Message}
		}
		c.logger.Error("No response from LLM service", logging.Err(err))
		return nil, &pferrors.LLMUnavailableError{Cause: err}
	}

	content := result.Text()
	if content == "" {
		return nil, &pferrors.LLMUnavailableError{Cause: fmt.Errorf("empty response")}
	}

	parsed, err := ParseResponse(content)
	if err != nil {
		c.logger.Error("Failed to parse LLM response as JSON", logging.F("content", content))
		return nil, err
	}
	return parsed, nil
}
