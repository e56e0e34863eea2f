package netmatch

import (
	"context"

	healthuc "github.com/kailas-cloud/netmatch/internal/usecase/health"
	matchuc "github.com/kailas-cloud/netmatch/internal/usecase/match"
	searchuc "github.com/kailas-cloud/netmatch/internal/usecase/search"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, query, userID string) searchuc.Response
}

func (m *mockSearchUC) Search(ctx context.Context, query, userID string) searchuc.Response {
	return m.searchFn(ctx, query, userID)
}

// --- matchUseCase mock ---

type mockMatchUC struct {
	explainFn    func(ctx context.Context, userID, targetID string) (matchuc.Result, error)
	regenerateFn func(ctx context.Context, userID, targetID string) (matchuc.Result, error)
}

func (m *mockMatchUC) Explain(ctx context.Context, userID, targetID string) (matchuc.Result, error) {
	return m.explainFn(ctx, userID, targetID)
}

func (m *mockMatchUC) Regenerate(ctx context.Context, userID, targetID string) (matchuc.Result, error) {
	return m.regenerateFn(ctx, userID, targetID)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- public Completer mock ---

type mockCompleter struct {
	fn        func(ctx context.Context, req CompletionRequest) (CompletionResult, error)
	healthErr error
}

func (m *mockCompleter) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	return m.fn(ctx, req)
}

func (m *mockCompleter) HealthCheck(context.Context) error { return m.healthErr }

// --- helpers ---

func testClient(searchSvc searchUseCase, matchSvc matchUseCase, healthSvc healthUseCase) *Client {
	return &Client{
		searchSvc: searchSvc,
		matchSvc:  matchSvc,
		healthSvc: healthSvc,
	}
}
