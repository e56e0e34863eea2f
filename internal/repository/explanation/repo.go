// Package explanation persists match explanations keyed by pair.
package explanation

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/netmatch/internal/db"
	"github.com/kailas-cloud/netmatch/internal/domain"
	"github.com/kailas-cloud/netmatch/internal/domain/match"
)

// store is the consumer interface for explanations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
}

// Repo implements usecase/match.Repository on a key-value store.
type Repo struct {
	store  store
	prefix string
}

// New creates an explanation repository. keyPrefix namespaces every key.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix + "match:"}
}

func (r *Repo) key(k match.PairKey) string { return r.prefix + string(k) }

// Get returns the stored explanation or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, k match.PairKey) (match.Explanation, error) {
	data, err := r.store.Get(ctx, r.key(k))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return match.Explanation{}, domain.ErrNotFound
		}
		return match.Explanation{}, fmt.Errorf("%w: get explanation: %w", domain.ErrStore, err)
	}
	e, err := unmarshal(data, k)
	if err != nil {
		return match.Explanation{}, fmt.Errorf("%w: %w", domain.ErrStore, err)
	}
	return e, nil
}

// Create stores e unless the pair already has an explanation.
// It returns the canonical stored explanation and whether e became it.
func (r *Repo) Create(ctx context.Context, e match.Explanation) (match.Explanation, bool, error) {
	data, err := marshal(e)
	if err != nil {
		return match.Explanation{}, false, err
	}

	stored, err := r.store.SetNX(ctx, r.key(e.PairKey()), data)
	if err != nil {
		return match.Explanation{}, false, fmt.Errorf("%w: create explanation: %w", domain.ErrStore, err)
	}
	if stored {
		return e, true, nil
	}

	existing, err := r.Get(ctx, e.PairKey())
	if err != nil {
		return match.Explanation{}, false, fmt.Errorf("read back explanation: %w", err)
	}
	return existing, false, nil
}

// Replace overwrites the pair's explanation unconditionally.
func (r *Repo) Replace(ctx context.Context, e match.Explanation) error {
	data, err := marshal(e)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, r.key(e.PairKey()), data); err != nil {
		return fmt.Errorf("%w: replace explanation: %w", domain.ErrStore, err)
	}
	return nil
}
