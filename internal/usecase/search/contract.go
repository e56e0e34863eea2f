package search

import (
	"context"

	"github.com/kailas-cloud/netmatch/internal/domain/profile"
	"github.com/kailas-cloud/netmatch/internal/domain/search/filter"
)

// Interpreter turns a free-text query into a structured filter.
// Any failure is reported as domain.ErrUnparseable.
type Interpreter interface {
	Interpret(ctx context.Context, query string) (filter.StructuredFilter, error)
}

// Directory is the profile record store used by search.
type Directory interface {
	ListAll(ctx context.Context, excludeID string) ([]profile.Record, error)
	Search(ctx context.Context, f filter.StructuredFilter, excludeID string) ([]profile.Record, error)
}
