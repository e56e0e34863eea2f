package gemini

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/netmatch/internal/domain"
	"github.com/kailas-cloud/netmatch/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterCompletionMetrics()
	os.Exit(m.Run())
}

type generateCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

type fakeModels struct {
	calls []generateCall
	resp  *genai.GenerateContentResponse
	err   error
}

func (f *fakeModels) GenerateContent(
	_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.calls = append(f.calls, generateCall{model: model, contents: contents, config: config})
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: genai.RoleModel}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{
		Candidates:    []*genai.Candidate{{Content: content}},
		ModelVersion:  "gemini-2.0-flash-001",
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 30, TotalTokenCount: 75},
	}
}

var explainRequest = domain.CompletionRequest{
	Purpose: domain.PurposeExplanation,
	Messages: []domain.Message{
		{Role: domain.RoleSystem, Content: "system"},
		{Role: domain.RoleUser, Content: "profiles"},
	},
	Temperature: 0.7,
	MaxTokens:   800,
}

func TestComplete_SystemInstructionAndUsage(t *testing.T) {
	fm := &fakeModels{resp: textResponse("First paragraph.", "Second paragraph.")}
	c := &Completer{models: fm, model: "gemini-2.0-flash", logger: zap.NewNop()}

	got, err := c.Complete(context.Background(), explainRequest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Text != "First paragraph.\nSecond paragraph." {
		t.Errorf("Text = %q", got.Text)
	}
	if got.Model != "gemini-2.0-flash-001" || got.TotalTokens != 75 || got.PromptTokens != 30 {
		t.Errorf("unexpected completion: %+v", got)
	}

	if len(fm.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(fm.calls))
	}
	call := fm.calls[0]
	if call.config.SystemInstruction == nil || call.config.SystemInstruction.Parts[0].Text != "system" {
		t.Error("expected system message as system instruction")
	}
	if len(call.contents) != 1 || call.contents[0].Parts[0].Text != "profiles" {
		t.Errorf("unexpected contents: %+v", call.contents)
	}
	if call.config.MaxOutputTokens != 800 || call.config.Temperature == nil || *call.config.Temperature != 0.7 {
		t.Errorf("unexpected config: %+v", call.config)
	}
}

func TestComplete_EmptyResponse(t *testing.T) {
	fm := &fakeModels{resp: textResponse("  ")}
	c := &Completer{models: fm, model: "m", logger: zap.NewNop()}

	_, err := c.Complete(context.Background(), explainRequest)
	if !errors.Is(err, domain.ErrCompletionFailed) {
		t.Fatalf("expected ErrCompletionFailed, got %v", err)
	}
}

func TestComplete_APIError(t *testing.T) {
	fm := &fakeModels{err: genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted",
	}}
	c := &Completer{models: fm, model: "m", logger: zap.NewNop()}

	_, err := c.Complete(context.Background(), explainRequest)
	var se *domain.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected StatusError 429, got %v", err)
	}
	if len(fm.calls) != 1 {
		t.Errorf("expected exactly one call, got %d", len(fm.calls))
	}
}

func TestComplete_DeadlineIsTimeout(t *testing.T) {
	fm := &fakeModels{err: context.DeadlineExceeded}
	c := &Completer{models: fm, model: "m", logger: zap.NewNop()}

	_, err := c.Complete(context.Background(), explainRequest)
	if !errors.Is(err, domain.ErrCompletionTimeout) {
		t.Fatalf("expected ErrCompletionTimeout, got %v", err)
	}
}

func TestNewCompleter_RequiresKey(t *testing.T) {
	if _, err := NewCompleter(context.Background(), &Config{APIKey: " "}); err == nil {
		t.Fatal("expected error for blank api key")
	}
}

func TestNewCompleter_HTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "hello"}]}}],
			"usageMetadata": {"promptTokenCount": 3, "totalTokenCount": 5}
		}`))
	}))
	defer server.Close()

	c, err := NewCompleter(context.Background(), &Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gemini-test",
		Logger:  zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewCompleter: %v", err)
	}

	got, err := c.Complete(context.Background(), explainRequest)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Text != "hello" || got.TotalTokens != 5 || got.Model != "gemini-test" {
		t.Errorf("unexpected completion: %+v", got)
	}
}
