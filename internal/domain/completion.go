package domain

import "context"

// Role tags a completion message.
type Role string

// Message roles understood by every completion provider.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Purpose labels a completion call for metrics and budget accounting.
type Purpose string

// Completion purposes.
const (
	PurposeExtraction  Purpose = "extraction"
	PurposeExplanation Purpose = "explanation"
)

// Message is a single role-tagged prompt message.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest is the provider-neutral completion call.
// Model name is fixed per provider at construction time.
type CompletionRequest struct {
	Purpose     Purpose
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Completion is a single text completion with token usage.
type Completion struct {
	Text         string
	Model        string
	PromptTokens int
	TotalTokens  int
}

// Completer is the shared completion contract between layers.
// Implementations never retry; the caller decides what a failure means.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// HealthChecker verifies completion provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
