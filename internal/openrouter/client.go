// Package openrouter adapts the OpenRouter chat-completions API into a single
// Summarize operation.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/itsneelabh/stockbrief/internal/logging"
	"github.com/itsneelabh/stockbrief/internal/telemetry"
)

// Sentinel errors for comparison with errors.Is.
var (
	// ErrUnauthorized means the bearer credential was rejected.
	ErrUnauthorized = errors.New("provider rejected credentials")

	// ErrRateLimited means the provider quota was exhausted.
	ErrRateLimited = errors.New("provider rate limit exceeded")

	// ErrNoCompletion means the response lacked the expected choice structure.
	ErrNoCompletion = errors.New("no completion returned")
)

// Client issues non-streaming chat-completion requests.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
	logger     logging.Logger
}

// NewClient creates an OpenRouter client. The credential is injected once at
// startup.
func NewClient(apiKey, baseURL, model string, maxTokens int, httpClient *http.Client, logger logging.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		maxTokens:  maxTokens,
		httpClient: httpClient,
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Summarize sends one user-role message and returns the generated text from
// the first completion choice. Provider failures come back as typed errors;
// the caller is never crashed by a malformed response.
func (c *Client) Summarize(ctx context.Context, prompt string) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "openrouter.summarize")
	defer span.End()
	span.SetAttributes(
		attribute.String("model", c.model),
		attribute.Int("prompt_length", len(prompt)),
	)

	body, err := json.Marshal(chatRequest{
		Model:     c.model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := statusError(resp.StatusCode)
		c.logger.ErrorWithContext(ctx, "Completion request failed", map[string]interface{}{
			"status_code": resp.StatusCode,
			"model":       c.model,
		})
		span.RecordError(err)
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		span.RecordError(ErrNoCompletion)
		return "", ErrNoCompletion
	}

	c.logger.InfoWithContext(ctx, "Summary generated", map[string]interface{}{
		"model":       c.model,
		"duration_ms": time.Since(start).Milliseconds(),
		"length":      len(parsed.Choices[0].Message.Content),
	})
	return parsed.Choices[0].Message.Content, nil
}

func statusError(code int) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("status %d: %w", code, ErrUnauthorized)
	case http.StatusTooManyRequests:
		return fmt.Errorf("status %d: %w", code, ErrRateLimited)
	default:
		return fmt.Errorf("provider returned status %d", code)
	}
}
