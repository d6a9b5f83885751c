package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pferrors "github.com/otherjamesbrown/meetsum/pkg/errors"
	"github.com/otherjamesbrown/meetsum/pkg/logging"
)

// OpenRouterClient summarizes through an OpenAI-compatible chat completions API.
type OpenRouterClient struct {
	config     Config
	httpClient *http.Client
	logger     logging.Logger
}

// NewOpenRouterClient creates a client. cfg is completed with WithDefaults.
func NewOpenRouterClient(cfg Config, logger logging.Logger) *OpenRouterClient {
	cfg = cfg.WithDefaults()
	return &OpenRouterClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With(logging.F("component", "openrouter"), logging.F("model", cfg.Model)),
	}
}

// Name returns the provider identifier.
func (c *OpenRouterClient) Name() string {
	return fmt.Sprintf("openrouter-%s", c.config.Model)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

type apiErrorResponse struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Summarize sends the transcript and returns the normalized summary.
func (c *OpenRouterClient) Summarize(ctx context.Context, text string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	content, err := c.complete(ctx, BuildPrompt(text))
	if err != nil {
		return nil, err
	}

	result, err := ParseResponse(content)
	if err != nil {
		c.logger.Error("Failed to parse LLM response as JSON", logging.F("content", content))
		return nil, err
	}
	return result, nil
}

func (c *OpenRouterClient) complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	body, err := json.Marshal(chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &pferrors.LLMUnavailableError{Cause: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("HTTP-Referer", c.config.AppURL)
	httpReq.Header.Set("X-Title", "Meeting Summary Bot")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("No response from LLM service", logging.Err(err))
		return "", &pferrors.LLMUnavailableError{Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &pferrors.LLMUnavailableError{Cause: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := apiErrorMessage(respBody)
		c.logger.Error("LLM API error",
			logging.F("status", resp.StatusCode),
			logging.F("message", msg))
		return "", &pferrors.LLMAPIError{StatusCode: resp.StatusCode, Message: msg}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", &pferrors.LLMUnavailableError{Cause: fmt.Errorf("invalid response from LLM API: %w", err)}
	}
	if len(chatResp.Choices) == 0 {
		return "", &pferrors.LLMUnavailableError{Cause: fmt.Errorf("no choices in response")}
	}

	c.logger.Debug("LLM completion received",
		logging.F("latency", time.Since(start)),
		logging.F("finish_reason", chatResp.Choices[0].FinishReason))
	return chatResp.Choices[0].Message.Content, nil
}

func apiErrorMessage(body []byte) string {
	var e apiErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return "Unknown error"
}
