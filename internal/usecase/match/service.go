// Package match explains why two profiles fit, caching one explanation per pair.
package match

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/netmatch/internal/domain"
	"github.com/kailas-cloud/netmatch/internal/domain/match"
	"github.com/kailas-cloud/netmatch/internal/domain/profile"
	"github.com/kailas-cloud/netmatch/internal/logger"
	"github.com/kailas-cloud/netmatch/internal/metrics"
)

// Config holds explanation call parameters.
type Config struct {
	Temperature float32
	MaxTokens   int
}

// Result is an explanation and whether it came from the store.
type Result struct {
	Explanation match.Explanation
	Cached      bool
}

// Service produces match explanations.
type Service struct {
	dir       Directory
	repo      Repository
	completer domain.Completer
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a match explanation service.
func New(dir Directory, repo Repository, c domain.Completer, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{dir: dir, repo: repo, completer: c, cfg: cfg, logger: logger, now: time.Now}
}

// Explain returns the pair's explanation, generating and storing it on a miss.
// Completion and store failures are reported as domain.ErrMatchUnavailable.
func (s *Service) Explain(ctx context.Context, userID, targetID string) (Result, error) {
	log := logger.FromContextOr(ctx, s.logger)

	if err := validatePair(userID, targetID); err != nil {
		return Result{}, err
	}
	key := match.NewPairKey(userID, targetID)

	cached, err := s.repo.Get(ctx, key)
	switch {
	case err == nil:
		metrics.ExplanationCacheTotal.WithLabelValues("hit").Inc()
		return Result{Explanation: cached, Cached: true}, nil
	case !errors.Is(err, domain.ErrNotFound):
		log.Warn("Explanation lookup failed, treating as miss",
			zap.String("pair_key", string(key)), zap.Error(err))
	}
	metrics.ExplanationCacheTotal.WithLabelValues("miss").Inc()

	e, err := s.generate(ctx, userID, targetID)
	if err != nil {
		return Result{}, err
	}

	canonical, created, err := s.repo.Create(ctx, e)
	if err != nil {
		log.Error("Failed to persist explanation",
			zap.String("pair_key", string(key)), zap.Error(err))
		return Result{Explanation: e}, nil
	}
	if !created {
		log.Info("Explanation already stored by a concurrent request",
			zap.String("pair_key", string(key)))
		return Result{Explanation: canonical, Cached: true}, nil
	}
	return Result{Explanation: canonical}, nil
}

// Regenerate computes a fresh explanation and overwrites the stored one.
func (s *Service) Regenerate(ctx context.Context, userID, targetID string) (Result, error) {
	log := logger.FromContextOr(ctx, s.logger)

	if err := validatePair(userID, targetID); err != nil {
		return Result{}, err
	}

	e, err := s.generate(ctx, userID, targetID)
	if err != nil {
		return Result{}, err
	}
	if err := s.repo.Replace(ctx, e); err != nil {
		log.Error("Failed to persist regenerated explanation",
			zap.String("pair_key", string(e.PairKey())), zap.Error(err))
	}
	return Result{Explanation: e}, nil
}

func validatePair(userID, targetID string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(targetID) == "" {
		return fmt.Errorf("%w: both user ids are required", domain.ErrInvalidRequest)
	}
	if userID == targetID {
		return fmt.Errorf("%w: cannot explain a match with oneself", domain.ErrInvalidRequest)
	}
	return nil
}

// generate loads both profiles and makes exactly one completion call.
// Profiles are ordered by id so the prompt does not depend on request order.
func (s *Service) generate(ctx context.Context, userID, targetID string) (match.Explanation, error) {
	a, b := userID, targetID
	if b < a {
		a, b = b, a
	}

	pa, err := s.load(ctx, a)
	if err != nil {
		return match.Explanation{}, err
	}
	pb, err := s.load(ctx, b)
	if err != nil {
		return match.Explanation{}, err
	}

	res, err := s.completer.Complete(ctx, domain.CompletionRequest{
		Purpose: domain.PurposeExplanation,
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: systemPrompt},
			{Role: domain.RoleUser, Content: buildPrompt(&pa, &pb)},
		},
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		metrics.ExplanationUnavailableTotal.Inc()
		return match.Explanation{}, fmt.Errorf("%w: %w", domain.ErrMatchUnavailable, err)
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		metrics.ExplanationUnavailableTotal.Inc()
		return match.Explanation{}, fmt.Errorf("%w: empty completion", domain.ErrMatchUnavailable)
	}

	return match.New(a, b, text, res.Model, s.now()), nil
}

func (s *Service) load(ctx context.Context, id string) (profile.Candidate, error) {
	rec, err := s.dir.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return profile.Candidate{}, err
		}
		metrics.ExplanationUnavailableTotal.Inc()
		return profile.Candidate{}, fmt.Errorf("%w: load profile %q: %w", domain.ErrMatchUnavailable, id, err)
	}
	return rec.Candidate(), nil
}
