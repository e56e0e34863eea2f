// Package search orchestrates AI-assisted profile search with a substring fallback.
package search

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/netmatch/internal/domain"
	"github.com/kailas-cloud/netmatch/internal/domain/profile"
	"github.com/kailas-cloud/netmatch/internal/domain/search/filter"
	"github.com/kailas-cloud/netmatch/internal/domain/search/result"
	"github.com/kailas-cloud/netmatch/internal/logger"
	"github.com/kailas-cloud/netmatch/internal/metrics"
)

// Mode names the path that produced a response.
type Mode string

// Search modes.
const (
	ModeStructured Mode = "structured"
	ModeFallback   Mode = "fallback"
)

// Response is the outcome of a search.
type Response struct {
	Results []result.Result
	// InterpretedIntent restates the extracted filter; empty when nothing was extracted.
	InterpretedIntent string
	Mode              Mode
}

// Service runs the search state machine: interpret, structured search, fallback.
type Service struct {
	interp Interpreter
	dir    Directory
	limit  int
	logger *zap.Logger
}

// New creates a search service. limit caps structured results; 0 means no cap.
// Fallback results are never capped.
func New(interp Interpreter, dir Directory, limit int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{interp: interp, dir: dir, limit: limit, logger: logger}
}

// Search never fails: interpreter and store errors degrade to the basic filter,
// and a failed fallback fetch yields an empty list.
func (s *Service) Search(ctx context.Context, query, requestingUserID string) Response {
	log := logger.FromContextOr(ctx, s.logger)

	f, ok := s.interpret(ctx, log, query)

	var (
		records []profile.Record
		mode    = ModeFallback
	)
	if ok {
		var err error
		records, err = s.dir.Search(ctx, f, requestingUserID)
		switch {
		case err != nil:
			log.Warn("Structured search failed, falling back", zap.Error(err))
		case len(records) == 0:
			log.Debug("Structured search returned nothing, falling back")
		default:
			mode = ModeStructured
		}
	}

	if mode == ModeFallback {
		records = s.fallback(ctx, log, query, requestingUserID)
	}

	if mode == ModeStructured && s.limit > 0 && len(records) > s.limit {
		records = records[:s.limit]
	}
	results := Format(records)

	metrics.SearchTotal.WithLabelValues(string(mode)).Inc()

	resp := Response{Results: results, Mode: mode}
	if ok {
		resp.InterpretedIntent = f.Summary()
	}
	return resp
}

// interpret reports ok only for a filter with at least one field.
func (s *Service) interpret(ctx context.Context, log *zap.Logger, query string) (filter.StructuredFilter, bool) {
	if strings.TrimSpace(query) == "" {
		return filter.StructuredFilter{}, false
	}
	f, err := s.interp.Interpret(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrUnparseable) {
			log.Debug("Query unparseable, using basic filter", zap.Error(err))
		} else {
			log.Warn("Query interpretation failed, using basic filter", zap.Error(err))
		}
		return filter.StructuredFilter{}, false
	}
	if f.IsEmpty() {
		return filter.StructuredFilter{}, false
	}
	return f, true
}

func (s *Service) fallback(ctx context.Context, log *zap.Logger, query, excludeID string) []profile.Record {
	all, err := s.dir.ListAll(ctx, excludeID)
	if err != nil {
		log.Error("Fallback directory fetch failed", zap.Error(err))
		return nil
	}

	q := normalizeQuery(query)
	kept := make([]profile.Record, 0, len(all))
	for i := range all {
		c := all[i].Candidate()
		if matchesBasic(&c, q) {
			kept = append(kept, all[i])
		}
	}
	return kept
}
