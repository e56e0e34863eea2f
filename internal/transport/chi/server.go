// Package chi serves the netmatch HTTP API.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/netmatch/internal/domain"
	domusage "github.com/kailas-cloud/netmatch/internal/domain/usage"
	"github.com/kailas-cloud/netmatch/internal/logger"
	healthuc "github.com/kailas-cloud/netmatch/internal/usecase/health"
	matchuc "github.com/kailas-cloud/netmatch/internal/usecase/match"
	searchuc "github.com/kailas-cloud/netmatch/internal/usecase/search"
)

const (
	maxQueryLength = 500
	// maxSearchBodyBytes bounds POST /search bodies before decoding.
	maxSearchBodyBytes = 8 << 10
)

// Searcher runs profile searches.
type Searcher interface {
	Search(ctx context.Context, query, requestingUserID string) searchuc.Response
}

// Explainer produces match explanations.
type Explainer interface {
	Explain(ctx context.Context, userID, targetID string) (matchuc.Result, error)
	Regenerate(ctx context.Context, userID, targetID string) (matchuc.Result, error)
}

// UsageReporter builds token usage reports.
type UsageReporter interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

// HealthChecker aggregates dependency health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements ServerInterface.
type Server struct {
	search        Searcher
	matches       Explainer
	usage         UsageReporter
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher,
	matches Explainer,
	usage UsageReporter,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:  search,
		matches: matches,
		usage:   usage,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorResponseCodeNotFound),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
	}
	return s
}

// SearchProfiles handles GET /search.
func (s *Server) SearchProfiles(w http.ResponseWriter, r *http.Request, params SearchProfilesParams) {
	s.runSearch(w, r, deref(params.Q), deref(params.UserID))
}

// SearchProfilesByBody handles POST /search.
func (s *Server) SearchProfilesByBody(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	body := http.MaxBytesReader(w, r.Body, maxSearchBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorResponseCodeBadRequest,
				"request body must be at most "+strconv.Itoa(maxSearchBodyBytes)+" bytes")
			return
		}
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	s.runSearch(w, r, req.Query, deref(req.UserID))
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, query, userID string) {
	if len([]rune(query)) > maxQueryLength {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed,
			"query must be at most "+strconv.Itoa(maxQueryLength)+" characters")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp := s.search.Search(ctx, strings.TrimSpace(query), strings.TrimSpace(userID))
	setCompletionHeaders(w, usage)

	writeJSON(w, http.StatusOK, searchResponseToDTO(&resp))
}

// ExplainMatch handles GET /matches/{userId}/{targetUserId}.
func (s *Server) ExplainMatch(w http.ResponseWriter, r *http.Request, userID, targetUserID string) {
	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.matches.Explain(ctx, userID, targetUserID)
	setCompletionHeaders(w, usage)
	s.writeMatch(w, r, res, err)
}

// RegenerateMatch handles POST /matches/{userId}/{targetUserId}/regenerate.
func (s *Server) RegenerateMatch(w http.ResponseWriter, r *http.Request, userID, targetUserID string) {
	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.matches.Regenerate(ctx, userID, targetUserID)
	setCompletionHeaders(w, usage)
	s.writeMatch(w, r, res, err)
}

// writeMatch renders an explanation. Unavailability is not an HTTP error.
func (s *Server) writeMatch(w http.ResponseWriter, r *http.Request, res matchuc.Result, err error) {
	if err != nil {
		if errors.Is(err, domain.ErrMatchUnavailable) {
			logger.FromContextOr(r.Context(), s.logger).Warn("Match explanation unavailable", zap.Error(err))
			writeJSON(w, http.StatusOK, MatchResponse{Unavailable: true})
			return
		}
		s.handleDomainError(w, err)
		return
	}

	e := res.Explanation
	text := e.Text()
	model := e.ModelUsed()
	created := e.CreatedAt()
	cached := res.Cached
	writeJSON(w, http.StatusOK, MatchResponse{
		Analysis:  &text,
		ModelUsed: &model,
		CreatedAt: &created,
		Cached:    &cached,
	})
}

// GetUsage handles GET /usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request, params GetUsageParams) {
	period, ok := domusage.ParsePeriod(deref(params.Period))
	if !ok {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, `period must be "day" or "month"`)
		return
	}

	report := s.usage.GetReport(r.Context(), period)

	b := report.Budget()
	resp := UsageResponse{
		Period:        string(report.Period()),
		Provider:      report.Provider(),
		PeriodStartAt: time.UnixMilli(report.PeriodStart()).UTC(),
		PeriodEndAt:   time.UnixMilli(report.PeriodEnd()).UTC(),
		TokensUsed:    report.TokensUsed(),
		Budget: BudgetStatus{
			TokensLimit:     b.TokensLimit(),
			TokensRemaining: b.TokensRemaining(),
			IsExhausted:     b.IsExhausted(),
		},
	}
	if b.TokensLimit() > 0 && b.ResetsAt() > 0 {
		resetsAt := time.UnixMilli(b.ResetsAt()).UTC()
		resp.Budget.ResetsAt = &resetsAt
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setCompletionHeaders(w http.ResponseWriter, usage *domain.CompletionUsage) {
	if usage != nil && usage.Calls > 0 {
		w.Header().Set("X-Completion-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrInvalidRequest,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}

func searchResponseToDTO(resp *searchuc.Response) SearchResponse {
	items := make([]SearchResultItem, len(resp.Results))
	for i := range resp.Results {
		r := &resp.Results[i]
		items[i] = SearchResultItem{
			ID:               r.ID(),
			Name:             r.Name(),
			Role:             r.Role(),
			Location:         r.Location(),
			Skills:           r.Skills(),
			Bio:              r.Bio(),
			MatchExplanation: r.MatchExplanation(),
		}
	}

	out := SearchResponse{Results: items, Mode: string(resp.Mode)}
	if resp.InterpretedIntent != "" {
		intent := resp.InterpretedIntent
		out.InterpretedIntent = &intent
	}
	return out
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
