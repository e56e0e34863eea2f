// Package gemini implements the completion client on the Google GenAI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/netmatch/internal/domain"
	"github.com/kailas-cloud/netmatch/internal/metrics"
)

const (
	defaultModel = "gemini-2.0-flash"
	provider     = "gemini"
)

// models is the slice of genai.Models the completer needs.
type models interface {
	GenerateContent(
		ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Config holds the Gemini provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// Completer is a completion provider backed by the Gemini API.
type Completer struct {
	models models
	model  string
	logger *zap.Logger
}

// NewCompleter creates a Gemini completion provider.
func NewCompleter(ctx context.Context, cfg *Config) (*Completer, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	return &Completer{models: client.Models, model: model, logger: cfg.Logger}, nil
}

// Complete implements domain.Completer. System messages become the system instruction.
func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (domain.Completion, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: int32(req.MaxTokens), //nolint:gosec // bounded by config validation
	}

	var (
		system   []string
		contents []*genai.Content
	)
	for _, m := range req.Messages {
		switch m.Role {
		case domain.RoleSystem:
			system = append(system, m.Content)
		case domain.RoleAssistant:
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: m.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: m.Content}}})
		}
	}
	if len(system) > 0 {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}}}
	}

	purpose := string(req.Purpose)
	start := time.Now()

	resp, err := c.models.GenerateContent(ctx, c.model, contents, config)

	duration := time.Since(start)

	if err != nil {
		parsed := parseAPIError(err)
		c.recordError(purpose, parsed)
		return domain.Completion{}, parsed
	}

	text := responseText(resp)
	if text == "" {
		c.recordError(purpose, nil)
		return domain.Completion{}, fmt.Errorf("gemini api returned empty response: %w", domain.ErrCompletionFailed)
	}

	out := domain.Completion{Text: text, Model: c.model}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if u := resp.UsageMetadata; u != nil {
		out.PromptTokens = int(u.PromptTokenCount)
		out.TotalTokens = int(u.TotalTokenCount)
	}

	metrics.CompletionRequestsTotal.WithLabelValues(provider, c.model, purpose, "success").Inc()
	metrics.CompletionRequestDuration.WithLabelValues(provider, c.model, purpose).Observe(duration.Seconds())
	if out.TotalTokens > 0 {
		metrics.CompletionTokensTotal.WithLabelValues(provider, c.model, "prompt").Add(float64(out.PromptTokens))
		metrics.CompletionTokensTotal.WithLabelValues(provider, c.model, "total").Add(float64(out.TotalTokens))
	}

	return out, nil
}

func (c *Completer) recordError(purpose string, err error) {
	kind := "empty_response"
	switch {
	case errors.Is(err, domain.ErrCompletionTimeout):
		kind = "timeout"
	case errors.As(err, new(*domain.StatusError)):
		kind = "api_error"
	case err != nil:
		kind = "transport_error"
	}
	metrics.CompletionRequestsTotal.WithLabelValues(provider, c.model, purpose, "error").Inc()
	metrics.CompletionErrorsTotal.WithLabelValues(provider, c.model, kind).Inc()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
		// first candidate with text wins
		if builder.Len() > 0 {
			break
		}
	}
	return builder.String()
}

func parseAPIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrCompletionTimeout, err)
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &domain.StatusError{StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	return fmt.Errorf("generate content: %v: %w", err, domain.ErrCompletionFailed)
}
