// Package completion wraps completion providers with a time bound and token budget.
package completion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/netmatch/internal/domain"
	"github.com/kailas-cloud/netmatch/internal/logger"
	"github.com/kailas-cloud/netmatch/internal/metrics"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// Guarded bounds every completion call in time and enforces the token budget.
// Transport metrics are recorded by the providers; this layer owns the deadline,
// budget and request-scoped usage accounting. It never retries.
type Guarded struct {
	inner    domain.Completer
	provider string
	timeout  time.Duration
	budget   BudgetChecker
	logger   *zap.Logger
}

// NewGuarded wraps a completer. budget may be nil.
func NewGuarded(
	inner domain.Completer, provider string, timeout time.Duration,
	budget BudgetChecker, logger *zap.Logger,
) *Guarded {
	return &Guarded{
		inner:    inner,
		provider: provider,
		timeout:  timeout,
		budget:   budget,
		logger:   logger,
	}
}

// Complete checks the budget, calls the inner completer under a deadline and records usage.
func (g *Guarded) Complete(ctx context.Context, req domain.CompletionRequest) (domain.Completion, error) {
	log := logger.FromContextOr(ctx, g.logger)

	if g.budget != nil {
		if err := g.budget.Check(ctx); err != nil {
			log.Error("Budget exceeded",
				zap.String("provider", g.provider),
				zap.String("purpose", string(req.Purpose)),
				zap.Error(err),
			)
			return domain.Completion{}, fmt.Errorf("budget check: %w", err)
		}
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := g.inner.Complete(callCtx, req)
	duration := time.Since(start)

	if err != nil {
		if !errors.Is(err, domain.ErrCompletionTimeout) && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s: %w", domain.ErrCompletionTimeout, g.timeout, err)
		}
		if !errors.Is(err, domain.ErrCompletionFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrCompletionFailed, err)
		}
		log.Warn("Completion request failed",
			zap.String("provider", g.provider),
			zap.String("purpose", string(req.Purpose)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.Completion{}, err
	}

	domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)

	if g.budget != nil && res.TotalTokens > 0 {
		g.budget.Record(int64(res.TotalTokens))
		remaining := metrics.CompletionBudgetTokensRemaining
		remaining.WithLabelValues(g.provider, "daily").Set(float64(g.budget.RemainingDaily()))
		remaining.WithLabelValues(g.provider, "monthly").Set(float64(g.budget.RemainingMonthly()))
	}

	log.Debug("Completion request completed",
		zap.String("provider", g.provider),
		zap.String("model", res.Model),
		zap.String("purpose", string(req.Purpose)),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", res.PromptTokens),
		zap.Int("total_tokens", res.TotalTokens),
	)

	return res, nil
}
