package netmatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/netmatch/internal/domain"
)

// Completer generates text for a chat-style prompt.
// Implementations should not retry; the client treats any error as a failed call.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// CompletionRequest is a single completion call.
type CompletionRequest struct {
	// Purpose is "extraction" for search interpretation or "explanation" for match text.
	Purpose     string
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// CompletionResult carries the generated text and token usage.
type CompletionResult struct {
	Text         string
	Model        string
	PromptTokens int
	TotalTokens  int
}

// completerAdapter wraps a public Completer to satisfy domain.Completer.
type completerAdapter struct {
	inner Completer
}

func (a *completerAdapter) Complete(ctx context.Context, req domain.CompletionRequest) (domain.Completion, error) {
	pub := CompletionRequest{
		Purpose:     string(req.Purpose),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	for _, m := range req.Messages {
		switch m.Role {
		case domain.RoleSystem:
			pub.System = joinPrompt(pub.System, m.Content)
		default:
			pub.User = joinPrompt(pub.User, m.Content)
		}
	}

	r, err := a.inner.Complete(ctx, pub)
	if err != nil {
		return domain.Completion{}, fmt.Errorf("%w: %w", domain.ErrCompletionFailed, err)
	}
	return domain.Completion{
		Text:         r.Text,
		Model:        r.Model,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

func joinPrompt(a, b string) string {
	if a == "" {
		return b
	}
	return a + "\n\n" + b
}

// errNoCompleter is returned for every call when no Completer was configured.
var errNoCompleter = errors.New("netmatch: completer not configured (use WithCompleter)")

// noopCompleter fails every call so search degrades to keyword matching.
type noopCompleter struct{}

func (noopCompleter) Complete(_ context.Context, _ domain.CompletionRequest) (domain.Completion, error) {
	return domain.Completion{}, fmt.Errorf("%w: %w", domain.ErrCompletionFailed, errNoCompleter)
}
