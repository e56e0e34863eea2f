// Package budget persists completion token counters per day and month.
package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/netmatch/internal/db"
	"github.com/kailas-cloud/netmatch/internal/domain/usage"
)

// Default counter lifetimes; a key outlives its period so late reads still see it.
const (
	DefaultDailyTTL   = 48 * time.Hour
	DefaultMonthlyTTL = 62 * 24 * time.Hour
)

// store is the consumer interface for budget operations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store keeps token counters as INCRBY keys with EXPIRE NX.
type Store struct {
	store    store
	prefix   string
	dailyTTL time.Duration
	monthTTL time.Duration
}

// New creates a budget store for one provider.
func New(s store, keyPrefix, provider string) *Store {
	return &Store{
		store:    s,
		prefix:   keyPrefix + "budget:" + provider + ":",
		dailyTTL: DefaultDailyTTL,
		monthTTL: DefaultMonthlyTTL,
	}
}

// Add increments the counter for the period containing at.
func (s *Store) Add(ctx context.Context, p usage.Period, at time.Time, tokens int64) error {
	key, ttl := s.key(p, at)
	if err := s.store.IncrBy(ctx, key, tokens); err != nil {
		return fmt.Errorf("budget INCRBY %s: %w", key, err)
	}
	// NX keeps the first expiry so repeated writes do not extend the key.
	if err := s.store.Expire(ctx, key, ttl, true); err != nil {
		return fmt.Errorf("budget EXPIRE %s: %w", key, err)
	}
	return nil
}

// Used returns the counter for the period containing at, 0 if absent.
func (s *Store) Used(ctx context.Context, p usage.Period, at time.Time) (int64, error) {
	key, _ := s.key(p, at)
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("budget GET %s: %w", key, err)
	}

	val, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("budget GET %s parse: %w", key, err)
	}
	return val, nil
}

func (s *Store) key(p usage.Period, at time.Time) (string, time.Duration) {
	at = at.UTC()
	if p == usage.PeriodDay {
		return s.prefix + "daily:" + at.Format("2006-01-02"), s.dailyTTL
	}
	return s.prefix + "monthly:" + at.Format("2006-01"), s.monthTTL
}
