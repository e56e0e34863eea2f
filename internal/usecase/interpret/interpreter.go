// Package interpret turns free-text search queries into structured filters.
package interpret

import (
	"context"
	_ "embed" // prompt template
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/netmatch/internal/domain"
	"github.com/kailas-cloud/netmatch/internal/domain/search/filter"
	"github.com/kailas-cloud/netmatch/internal/logger"
)

//go:embed prompt.md
var systemPrompt string

const defaultMaxLogLength = 200

// Config holds extraction call parameters.
type Config struct {
	Temperature  float32
	MaxTokens    int
	MaxLogLength int
}

// Interpreter extracts a StructuredFilter from a query with one completion call.
type Interpreter struct {
	completer domain.Completer
	cfg       Config
	logger    *zap.Logger
}

// New creates an Interpreter.
func New(c domain.Completer, cfg Config, logger *zap.Logger) *Interpreter {
	if cfg.MaxLogLength <= 0 {
		cfg.MaxLogLength = defaultMaxLogLength
	}
	return &Interpreter{completer: c, cfg: cfg, logger: logger}
}

// Interpret returns the filter for query. Every failure, including a completion
// failure, is reported as domain.ErrUnparseable so the caller can fall back.
func (i *Interpreter) Interpret(ctx context.Context, query string) (filter.StructuredFilter, error) {
	log := logger.FromContextOr(ctx, i.logger)

	query = strings.TrimSpace(query)
	if query == "" {
		return filter.StructuredFilter{}, fmt.Errorf("%w: empty query", domain.ErrUnparseable)
	}

	res, err := i.completer.Complete(ctx, domain.CompletionRequest{
		Purpose: domain.PurposeExtraction,
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: systemPrompt},
			{Role: domain.RoleUser, Content: query},
		},
		Temperature: i.cfg.Temperature,
		MaxTokens:   i.cfg.MaxTokens,
	})
	if err != nil {
		return filter.StructuredFilter{}, fmt.Errorf("%w: %w", domain.ErrUnparseable, err)
	}

	log.Debug("Query interpretation response",
		zap.Int("response_length", utf8.RuneCountInString(res.Text)),
		zap.String("response_preview", logger.Truncate(res.Text, i.cfg.MaxLogLength)),
	)

	f, err := parseFilter(res.Text)
	if err != nil {
		log.Debug("Query not interpretable",
			zap.String("query", logger.Truncate(query, i.cfg.MaxLogLength)),
			zap.Error(err),
		)
		return filter.StructuredFilter{}, err
	}
	return f, nil
}
