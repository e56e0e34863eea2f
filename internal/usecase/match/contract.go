package match

import (
	"context"

	"github.com/kailas-cloud/netmatch/internal/domain/match"
	"github.com/kailas-cloud/netmatch/internal/domain/profile"
)

// Directory loads single profiles.
type Directory interface {
	Get(ctx context.Context, id string) (profile.Record, error)
}

// Repository persists explanations per pair.
type Repository interface {
	Get(ctx context.Context, k match.PairKey) (match.Explanation, error)
	Create(ctx context.Context, e match.Explanation) (match.Explanation, bool, error)
	Replace(ctx context.Context, e match.Explanation) error
}
