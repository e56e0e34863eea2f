package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/netmatch/internal/config"
	dbPostgres "github.com/kailas-cloud/netmatch/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/netmatch/internal/db/redis"
	"github.com/kailas-cloud/netmatch/internal/domain"
	logpkg "github.com/kailas-cloud/netmatch/internal/logger"
	"github.com/kailas-cloud/netmatch/internal/metrics"
	budgetrepo "github.com/kailas-cloud/netmatch/internal/repository/budget"
	directoryrepo "github.com/kailas-cloud/netmatch/internal/repository/directory"
	explanationrepo "github.com/kailas-cloud/netmatch/internal/repository/explanation"
	chiTransport "github.com/kailas-cloud/netmatch/internal/transport/chi"
	geminiTransport "github.com/kailas-cloud/netmatch/internal/transport/gemini"
	openaiTransport "github.com/kailas-cloud/netmatch/internal/transport/openai"
	completionuc "github.com/kailas-cloud/netmatch/internal/usecase/completion"
	healthuc "github.com/kailas-cloud/netmatch/internal/usecase/health"
	interpretuc "github.com/kailas-cloud/netmatch/internal/usecase/interpret"
	matchuc "github.com/kailas-cloud/netmatch/internal/usecase/match"
	searchuc "github.com/kailas-cloud/netmatch/internal/usecase/search"
	usageuc "github.com/kailas-cloud/netmatch/internal/usecase/usage"
	"github.com/kailas-cloud/netmatch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting netmatch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("completion_provider", cfg.Completion.Provider),
		zap.String("completion_model", cfg.Completion.Model),
		zap.Strings("cache_addrs", cfg.Cache.Addrs),
	)

	ctx := context.Background()

	// Profile directory
	pg, err := dbPostgres.NewClient(dbPostgres.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetimeSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to create database client", zap.Error(err))
	}
	defer pg.Close()

	if err := pg.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Explanation and budget store
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:       cfg.Cache.Addrs,
		Username:    cfg.Cache.Username,
		Password:    cfg.Cache.Password,
		DB:          cfg.Cache.DB,
		DialTimeout: time.Duration(cfg.Cache.DialTimeoutSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Cache not ready", zap.Error(err))
	}
	logger.Info("Connected to cache")

	metrics.RegisterHTTPMetrics()
	metrics.RegisterCompletionMetrics()
	metrics.RegisterSearchMetrics()

	// Single BudgetTracker shared by the completer and the usage service.
	var budget *completionuc.BudgetTracker
	budgetCfg := cfg.Completion.Budget
	if budgetCfg.DailyTokenLimit > 0 || budgetCfg.MonthlyTokenLimit > 0 {
		action := completionuc.BudgetActionWarn
		if budgetCfg.Action == "reject" {
			action = completionuc.BudgetActionReject
		}
		budget = completionuc.NewBudgetTracker(
			cfg.Completion.Provider, budgetCfg.DailyTokenLimit, budgetCfg.MonthlyTokenLimit, action, logger,
		)
		budget.WithStore(ctx, budgetrepo.New(store, cfg.Cache.KeyPrefix, cfg.Completion.Provider))
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var budgetChecker completionuc.BudgetChecker
	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetChecker = budget
		budgetReader = budget
	}

	base, err := buildCompleter(ctx, cfg.Completion, logger)
	if err != nil {
		logger.Fatal("Failed to create completion client", zap.Error(err))
	}
	completer := completionuc.NewGuarded(
		base, cfg.Completion.Provider,
		time.Duration(cfg.Completion.TimeoutSec)*time.Second,
		budgetChecker, logger,
	)

	// Repositories
	directory := directoryrepo.New(pg.DB(), cfg.Search.ResultLimit)
	explanations := explanationrepo.New(store, cfg.Cache.KeyPrefix)

	// Services
	interpreter := interpretuc.New(completer, interpretuc.Config{
		Temperature: cfg.Completion.Extraction.Temperature,
		MaxTokens:   cfg.Completion.Extraction.MaxTokens,
	}, logger)
	searchSvc := searchuc.New(interpreter, directory, cfg.Search.ResultLimit, logger)
	matchSvc := matchuc.New(directory, explanations, completer, matchuc.Config{
		Temperature: cfg.Completion.Explanation.Temperature,
		MaxTokens:   cfg.Completion.Explanation.MaxTokens,
	}, logger)
	usageSvc := usageuc.New(budgetReader, cfg.Completion.Provider)
	healthSvc := healthuc.New(pg, store, newCompletionHealthChecker(base))

	server := chiTransport.NewServer(searchSvc, matchSvc, usageSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	chiTransport.HandlerWithOptions(server, chiTransport.ChiServerOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
				Code:    chiTransport.ErrorResponseCodeBadRequest,
				Message: err.Error(),
			})
		},
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildCompleter creates the provider client selected in config.
func buildCompleter(ctx context.Context, cfg config.CompletionConfig, logger *zap.Logger) (domain.Completer, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		c, err := geminiTransport.NewCompleter(ctx, &geminiTransport.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		return c, nil
	default:
		return openaiTransport.NewCompleter(&openaiTransport.Config{
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Model:    cfg.Model,
			Provider: cfg.Provider,
			Logger:   logger,
		}), nil
	}
}

// completionHealthChecker adapts a completer to health.CompletionChecker.
// Providers without a health endpoint always report healthy.
type completionHealthChecker struct {
	completer domain.Completer
}

func newCompletionHealthChecker(c domain.Completer) *completionHealthChecker {
	return &completionHealthChecker{completer: c}
}

func (h *completionHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.completer.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("completion health check: %w", err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorResponseCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("completion_tokens", ww.Header().Get("X-Completion-Tokens")),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
