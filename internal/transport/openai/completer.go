// Package openai implements the completion client on the OpenAI-compatible chat API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/netmatch/internal/domain"
	"github.com/kailas-cloud/netmatch/internal/metrics"
)

// Completer is a chat completion provider using the OpenAI-compatible API.
type Completer struct {
	client   *openai.Client
	model    string
	provider string
	logger   *zap.Logger
}

// Config holds the completion provider settings.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Provider string
	Logger   *zap.Logger
}

// NewCompleter creates an OpenAI-compatible completion provider.
// An empty BaseURL keeps the public OpenAI endpoint.
func NewCompleter(cfg *Config) *Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}

	return &Completer{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		provider: provider,
		logger:   cfg.Logger,
	}
}

// Complete implements domain.Completer with one chat completion call. It never retries.
func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (domain.Completion, error) {
	msgs := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = openai.ChatCompletionMessage{Role: chatRole(m.Role), Content: m.Content}
	}

	purpose := string(req.Purpose)
	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})

	duration := time.Since(start)

	if err != nil {
		parsed := parseAPIError(err)
		c.recordError(purpose, errorType(parsed))
		return domain.Completion{}, parsed
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		c.recordError(purpose, "empty_response")
		return domain.Completion{}, fmt.Errorf("empty completion response: %w", domain.ErrCompletionFailed)
	}

	metrics.CompletionRequestsTotal.WithLabelValues(c.provider, c.model, purpose, "success").Inc()
	metrics.CompletionRequestDuration.WithLabelValues(c.provider, c.model, purpose).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.CompletionTokensTotal.WithLabelValues(c.provider, c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.CompletionTokensTotal.WithLabelValues(c.provider, c.model, "total").Add(float64(resp.Usage.TotalTokens))
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}

	return domain.Completion{
		Text:         resp.Choices[0].Message.Content,
		Model:        model,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Completer) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (c *Completer) recordError(purpose, kind string) {
	metrics.CompletionRequestsTotal.WithLabelValues(c.provider, c.model, purpose, "error").Inc()
	metrics.CompletionErrorsTotal.WithLabelValues(c.provider, c.model, kind).Inc()
}

func chatRole(r domain.Role) string {
	switch r {
	case domain.RoleSystem:
		return openai.ChatMessageRoleSystem
	case domain.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrCompletionTimeout):
		return "timeout"
	case errors.As(err, new(*domain.StatusError)):
		return "api_error"
	default:
		return "transport_error"
	}
}

// parseAPIError maps client errors onto domain.ErrCompletionFailed.
func parseAPIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrCompletionTimeout, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := extractDetail(reqErr.Body)
		if msg == "" {
			msg = string(reqErr.Body)
		}
		return &domain.StatusError{StatusCode: reqErr.HTTPStatusCode, Message: msg}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &domain.StatusError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}

	return fmt.Errorf("completion request failed: %v: %w", err, domain.ErrCompletionFailed)
}

// extractDetail extracts the "detail" field some compatible gateways return.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
