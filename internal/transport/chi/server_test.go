package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/netmatch/internal/domain"
	"github.com/kailas-cloud/netmatch/internal/domain/match"
	"github.com/kailas-cloud/netmatch/internal/domain/search/result"
	domusage "github.com/kailas-cloud/netmatch/internal/domain/usage"
	healthuc "github.com/kailas-cloud/netmatch/internal/usecase/health"
	matchuc "github.com/kailas-cloud/netmatch/internal/usecase/match"
	searchuc "github.com/kailas-cloud/netmatch/internal/usecase/search"
)

// --- Mocks ---

type mockSearcher struct {
	lastQuery, lastUser string
	resp                searchuc.Response
	tokens              int
}

func (m *mockSearcher) Search(ctx context.Context, query, userID string) searchuc.Response {
	m.lastQuery, m.lastUser = query, userID
	if m.tokens > 0 {
		domain.UsageFromContext(ctx).AddTokens(m.tokens)
	}
	return m.resp
}

type mockExplainer struct {
	explainFn    func(userID, targetID string) (matchuc.Result, error)
	regenerateFn func(userID, targetID string) (matchuc.Result, error)
}

func (m *mockExplainer) Explain(_ context.Context, userID, targetID string) (matchuc.Result, error) {
	return m.explainFn(userID, targetID)
}

func (m *mockExplainer) Regenerate(_ context.Context, userID, targetID string) (matchuc.Result, error) {
	return m.regenerateFn(userID, targetID)
}

type mockUsage struct {
	lastPeriod domusage.Period
	report     domusage.Report
}

func (m *mockUsage) GetReport(_ context.Context, p domusage.Period) domusage.Report {
	m.lastPeriod = p
	return m.report
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

type deps struct {
	search  *mockSearcher
	matches *mockExplainer
	usage   *mockUsage
	health  *mockHealth
}

func newTestRouter(d *deps) http.Handler {
	if d.search == nil {
		d.search = &mockSearcher{}
	}
	if d.matches == nil {
		d.matches = &mockExplainer{}
	}
	if d.usage == nil {
		d.usage = &mockUsage{}
	}
	if d.health == nil {
		d.health = &mockHealth{}
	}
	srv := NewServer(d.search, d.matches, d.usage, d.health, zap.NewNop())
	return HandlerWithOptions(srv, ChiServerOptions{BaseRouter: chi.NewRouter()})
}

func do(t *testing.T, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v (body %q)", err, rr.Body.String())
	}
	return v
}

func explanation() match.Explanation {
	return match.New("a", "b", "They fit.", "gpt-4o-mini", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

// --- Search ---

func TestSearchProfiles_GET(t *testing.T) {
	d := &deps{search: &mockSearcher{
		tokens: 120,
		resp: searchuc.Response{
			Results:           []result.Result{result.New("1", "Ada", "Engineer", "Austin", []string{"Go"}, "Hi")},
			InterpretedIntent: "Looking for professionals in Austin",
			Mode:              searchuc.ModeStructured,
		},
	}}

	rr := do(t, newTestRouter(d), http.MethodGet, "/search?q=go+devs+in+austin&user_id=me", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if d.search.lastQuery != "go devs in austin" || d.search.lastUser != "me" {
		t.Errorf("unexpected args %q %q", d.search.lastQuery, d.search.lastUser)
	}
	if rr.Header().Get("X-Completion-Tokens") != "120" {
		t.Errorf("X-Completion-Tokens = %q", rr.Header().Get("X-Completion-Tokens"))
	}

	resp := decode[SearchResponse](t, rr)
	if len(resp.Results) != 1 || resp.Results[0].ID != "1" || resp.Results[0].Skills[0] != "Go" {
		t.Errorf("unexpected results %+v", resp.Results)
	}
	if resp.InterpretedIntent == nil || *resp.InterpretedIntent != "Looking for professionals in Austin" {
		t.Errorf("InterpretedIntent = %v", resp.InterpretedIntent)
	}
	if resp.Mode != "structured" {
		t.Errorf("Mode = %q", resp.Mode)
	}
}

func TestSearchProfiles_EmptyResultsEncodeAsArray(t *testing.T) {
	d := &deps{search: &mockSearcher{resp: searchuc.Response{Results: []result.Result{}, Mode: searchuc.ModeFallback}}}

	rr := do(t, newTestRouter(d), http.MethodGet, "/search", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `"results":[]`) {
		t.Errorf("results must be an empty array: %s", body)
	}
	if strings.Contains(body, "interpreted_intent") {
		t.Errorf("interpreted_intent must be omitted: %s", body)
	}
	if rr.Header().Get("X-Completion-Tokens") != "" {
		t.Error("no completion header without completion calls")
	}
}

func TestSearchProfiles_POST(t *testing.T) {
	d := &deps{search: &mockSearcher{resp: searchuc.Response{Mode: searchuc.ModeFallback}}}

	rr := do(t, newTestRouter(d), http.MethodPost, "/search", []byte(`{"query":"  react  ","user_id":"u9"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if d.search.lastQuery != "react" || d.search.lastUser != "u9" {
		t.Errorf("unexpected args %q %q", d.search.lastQuery, d.search.lastUser)
	}
}

func TestSearchProfiles_POSTBadBody(t *testing.T) {
	rr := do(t, newTestRouter(&deps{}), http.MethodPost, "/search", []byte(`{`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if e := decode[ErrorResponse](t, rr); e.Code != ErrorResponseCodeBadRequest {
		t.Errorf("code = %q", e.Code)
	}
}

func TestSearchProfiles_QueryTooLong(t *testing.T) {
	body, _ := json.Marshal(SearchRequest{Query: strings.Repeat("x", maxQueryLength+1)})

	rr := do(t, newTestRouter(&deps{}), http.MethodPost, "/search", body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestSearchProfiles_POSTBodyTooLarge(t *testing.T) {
	d := &deps{}
	body := []byte(`{"query":"` + strings.Repeat("x", maxSearchBodyBytes) + `"}`)

	rr := do(t, newTestRouter(d), http.MethodPost, "/search", body)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rr.Code)
	}
	if d.search.lastQuery != "" {
		t.Error("oversized body must not reach the searcher")
	}
}

func TestSearchProfiles_POSTMaxLengthMultibyteQuery(t *testing.T) {
	d := &deps{search: &mockSearcher{resp: searchuc.Response{Mode: searchuc.ModeFallback}}}
	query := strings.Repeat("\U0001F600", maxQueryLength)
	body, _ := json.Marshal(SearchRequest{Query: query})

	rr := do(t, newTestRouter(d), http.MethodPost, "/search", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for a %d-character query", rr.Code, maxQueryLength)
	}
}

// --- Matches ---

func TestExplainMatch_OK(t *testing.T) {
	var gotUser, gotTarget string
	d := &deps{matches: &mockExplainer{explainFn: func(u, tgt string) (matchuc.Result, error) {
		gotUser, gotTarget = u, tgt
		return matchuc.Result{Explanation: explanation(), Cached: true}, nil
	}}}

	rr := do(t, newTestRouter(d), http.MethodGet, "/matches/a/b", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if gotUser != "a" || gotTarget != "b" {
		t.Errorf("path params %q %q", gotUser, gotTarget)
	}

	resp := decode[MatchResponse](t, rr)
	if resp.Analysis == nil || *resp.Analysis != "They fit." {
		t.Errorf("Analysis = %v", resp.Analysis)
	}
	if resp.ModelUsed == nil || *resp.ModelUsed != "gpt-4o-mini" {
		t.Errorf("ModelUsed = %v", resp.ModelUsed)
	}
	if resp.Cached == nil || !*resp.Cached {
		t.Error("Cached must be true")
	}
	if resp.Unavailable {
		t.Error("Unavailable must be false")
	}
}

func TestExplainMatch_UnavailableIsNotAnError(t *testing.T) {
	d := &deps{matches: &mockExplainer{explainFn: func(_, _ string) (matchuc.Result, error) {
		return matchuc.Result{}, fmt.Errorf("%w: %w", domain.ErrMatchUnavailable, domain.ErrCompletionTimeout)
	}}}

	rr := do(t, newTestRouter(d), http.MethodGet, "/matches/a/b", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != `{"unavailable":true}` {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestExplainMatch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   ErrorResponseCode
	}{
		{"not found", fmt.Errorf("profile %q: %w", "b", domain.ErrNotFound), http.StatusNotFound, ErrorResponseCodeNotFound},
		{"invalid", fmt.Errorf("%w: same user", domain.ErrInvalidRequest), http.StatusBadRequest, ErrorResponseCodeValidationFailed},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, ErrorResponseCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &deps{matches: &mockExplainer{explainFn: func(_, _ string) (matchuc.Result, error) {
				return matchuc.Result{}, tt.err
			}}}

			rr := do(t, newTestRouter(d), http.MethodGet, "/matches/a/b", nil)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			e := decode[ErrorResponse](t, rr)
			if e.Code != tt.code {
				t.Errorf("code = %q, want %q", e.Code, tt.code)
			}
			if tt.status == http.StatusInternalServerError && e.Message != "internal error" {
				t.Errorf("internal details leaked: %q", e.Message)
			}
		})
	}
}

func TestRegenerateMatch(t *testing.T) {
	called := false
	d := &deps{matches: &mockExplainer{regenerateFn: func(u, tgt string) (matchuc.Result, error) {
		called = u == "x" && tgt == "y"
		return matchuc.Result{Explanation: explanation()}, nil
	}}}

	rr := do(t, newTestRouter(d), http.MethodPost, "/matches/x/y/regenerate", nil)
	if rr.Code != http.StatusOK || !called {
		t.Fatalf("status = %d called = %v", rr.Code, called)
	}
	resp := decode[MatchResponse](t, rr)
	if resp.Cached == nil || *resp.Cached {
		t.Error("regenerated explanation must report cached=false")
	}
}

// --- Usage & health ---

func TestGetUsage(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	d := &deps{usage: &mockUsage{report: domusage.NewReport(
		domusage.PeriodMonth, start.UnixMilli(), end.UnixMilli(), "openai", 1500,
		domusage.NewBudget(10000, 8500, end.UnixMilli()),
	)}}

	rr := do(t, newTestRouter(d), http.MethodGet, "/usage", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if d.usage.lastPeriod != domusage.PeriodMonth {
		t.Errorf("default period = %q", d.usage.lastPeriod)
	}
	resp := decode[UsageResponse](t, rr)
	if resp.Provider != "openai" || resp.TokensUsed != 1500 {
		t.Errorf("unexpected usage %+v", resp)
	}
	if resp.Budget.TokensRemaining != 8500 || resp.Budget.IsExhausted {
		t.Errorf("unexpected budget %+v", resp.Budget)
	}
	if resp.Budget.ResetsAt == nil || !resp.Budget.ResetsAt.Equal(end) {
		t.Errorf("ResetsAt = %v", resp.Budget.ResetsAt)
	}
	if !resp.PeriodStartAt.Equal(start) {
		t.Errorf("PeriodStartAt = %v", resp.PeriodStartAt)
	}
}

func TestGetUsage_Period(t *testing.T) {
	d := &deps{}
	h := newTestRouter(d)

	if rr := do(t, h, http.MethodGet, "/usage?period=day", nil); rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if d.usage.lastPeriod != domusage.PeriodDay {
		t.Errorf("period = %q", d.usage.lastPeriod)
	}
	if rr := do(t, h, http.MethodGet, "/usage?period=week", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid period status = %d", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		code   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusServiceUnavailable},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			d := &deps{health: &mockHealth{report: healthuc.Report{
				Status: tt.status,
				Checks: map[string]healthuc.CheckResult{healthuc.ComponentDatabase: healthuc.CheckOK},
			}}}

			rr := do(t, newTestRouter(d), http.MethodGet, "/health", nil)
			if rr.Code != tt.code {
				t.Fatalf("status = %d, want %d", rr.Code, tt.code)
			}
			resp := decode[HealthResponse](t, rr)
			if resp.Status != string(tt.status) || resp.Checks["database"] != "ok" {
				t.Errorf("unexpected body %+v", resp)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rr := do(t, newTestRouter(&deps{}), http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}
