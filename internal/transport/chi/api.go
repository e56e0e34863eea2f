package chi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ErrorResponseCode is a machine-readable error code.
type ErrorResponseCode string

// Error codes returned by the API.
const (
	ErrorResponseCodeBadRequest       ErrorResponseCode = "bad_request"
	ErrorResponseCodeUnauthorized     ErrorResponseCode = "unauthorized"
	ErrorResponseCodeNotFound         ErrorResponseCode = "not_found"
	ErrorResponseCodeValidationFailed ErrorResponseCode = "validation_failed"
	ErrorResponseCodeInternalError    ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// SearchProfilesParams are the query parameters of GET /search.
type SearchProfilesParams struct {
	Q      *string `form:"q" json:"q,omitempty"`
	UserID *string `form:"user_id" json:"user_id,omitempty"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query  string  `json:"query"`
	UserID *string `json:"user_id,omitempty"`
}

// SearchResultItem is one profile in a search response.
type SearchResultItem struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Role             string   `json:"role"`
	Location         string   `json:"location"`
	Skills           []string `json:"skills"`
	Bio              string   `json:"bio"`
	MatchExplanation *string  `json:"match_explanation,omitempty"`
}

// SearchResponse is the body of a search response.
type SearchResponse struct {
	Results           []SearchResultItem `json:"results"`
	InterpretedIntent *string            `json:"interpreted_intent,omitempty"`
	Mode              string             `json:"mode"`
}

// MatchResponse is either an analysis or {"unavailable": true}.
type MatchResponse struct {
	Analysis    *string    `json:"analysis,omitempty"`
	ModelUsed   *string    `json:"model_used,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	Cached      *bool      `json:"cached,omitempty"`
	Unavailable bool       `json:"unavailable,omitempty"`
}

// GetUsageParams are the query parameters of GET /usage.
type GetUsageParams struct {
	Period *string `form:"period" json:"period,omitempty"`
}

// BudgetStatus is the token budget part of a usage response.
type BudgetStatus struct {
	TokensLimit     int64      `json:"tokens_limit"`
	TokensRemaining int64      `json:"tokens_remaining"`
	IsExhausted     bool       `json:"is_exhausted"`
	ResetsAt        *time.Time `json:"resets_at,omitempty"`
}

// UsageResponse is the body of GET /usage.
type UsageResponse struct {
	Period        string       `json:"period"`
	Provider      string       `json:"provider"`
	PeriodStartAt time.Time    `json:"period_start_at"`
	PeriodEndAt   time.Time    `json:"period_end_at"`
	TokensUsed    int64        `json:"tokens_used"`
	Budget        BudgetStatus `json:"budget"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ServerInterface is implemented by the API handlers.
type ServerInterface interface {
	// GET /search
	SearchProfiles(w http.ResponseWriter, r *http.Request, params SearchProfilesParams)
	// POST /search
	SearchProfilesByBody(w http.ResponseWriter, r *http.Request)
	// GET /matches/{userId}/{targetUserId}
	ExplainMatch(w http.ResponseWriter, r *http.Request, userID, targetUserID string)
	// POST /matches/{userId}/{targetUserId}/regenerate
	RegenerateMatch(w http.ResponseWriter, r *http.Request, userID, targetUserID string)
	// GET /usage
	GetUsage(w http.ResponseWriter, r *http.Request, params GetUsageParams)
	// GET /health
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// GET /metrics
	Metrics(w http.ResponseWriter, r *http.Request)
}

// InvalidParamFormatError reports a parameter that could not be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerWithOptions mounts si on the base router.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	errFn := options.ErrorHandlerFunc
	if errFn == nil {
		errFn = func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		}
	}
	wrapper := &serverInterfaceWrapper{handler: si, errorHandlerFunc: errFn}

	r.Get("/search", wrapper.SearchProfiles)
	r.Post("/search", wrapper.SearchProfilesByBody)
	r.Get("/matches/{userId}/{targetUserId}", wrapper.ExplainMatch)
	r.Post("/matches/{userId}/{targetUserId}/regenerate", wrapper.RegenerateMatch)
	r.Get("/usage", wrapper.GetUsage)
	r.Get("/health", wrapper.HealthCheck)
	r.Get("/metrics", wrapper.Metrics)
	return r
}

type serverInterfaceWrapper struct {
	handler          ServerInterface
	errorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *serverInterfaceWrapper) SearchProfiles(w http.ResponseWriter, r *http.Request) {
	var params SearchProfilesParams

	if err := runtime.BindQueryParameter("form", true, false, "q", r.URL.Query(), &params.Q); err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "q", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "user_id", r.URL.Query(), &params.UserID); err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "user_id", Err: err})
		return
	}

	siw.handler.SearchProfiles(w, r, params)
}

func (siw *serverInterfaceWrapper) SearchProfilesByBody(w http.ResponseWriter, r *http.Request) {
	siw.handler.SearchProfilesByBody(w, r)
}

func (siw *serverInterfaceWrapper) bindPair(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	var userID, targetUserID string
	opts := runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true}

	if err := runtime.BindStyledParameterWithOptions("simple", "userId", chi.URLParam(r, "userId"), &userID, opts); err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "userId", Err: err})
		return "", "", false
	}
	if err := runtime.BindStyledParameterWithOptions(
		"simple", "targetUserId", chi.URLParam(r, "targetUserId"), &targetUserID, opts,
	); err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "targetUserId", Err: err})
		return "", "", false
	}
	return userID, targetUserID, true
}

func (siw *serverInterfaceWrapper) ExplainMatch(w http.ResponseWriter, r *http.Request) {
	userID, targetUserID, ok := siw.bindPair(w, r)
	if !ok {
		return
	}
	siw.handler.ExplainMatch(w, r, userID, targetUserID)
}

func (siw *serverInterfaceWrapper) RegenerateMatch(w http.ResponseWriter, r *http.Request) {
	userID, targetUserID, ok := siw.bindPair(w, r)
	if !ok {
		return
	}
	siw.handler.RegenerateMatch(w, r, userID, targetUserID)
}

func (siw *serverInterfaceWrapper) GetUsage(w http.ResponseWriter, r *http.Request) {
	var params GetUsageParams

	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &params.Period); err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "period", Err: err})
		return
	}

	siw.handler.GetUsage(w, r, params)
}

func (siw *serverInterfaceWrapper) HealthCheck(w http.ResponseWriter, r *http.Request) {
	siw.handler.HealthCheck(w, r)
}

func (siw *serverInterfaceWrapper) Metrics(w http.ResponseWriter, r *http.Request) {
	siw.handler.Metrics(w, r)
}
