package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/netmatch/internal/db"
)

func opErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &db.Error{Op: op, Err: err}
}

// Get returns the value at key or db.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.do(ctx, s.b().Get().Key(key).Build()).AsBytes()
	switch {
	case rueidis.IsRedisNil(err):
		return nil, db.ErrKeyNotFound
	case err != nil:
		return nil, opErr(db.OpGet, err)
	}
	return data, nil
}

// Set stores value at key, replacing any previous value. Keys never expire.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	cmd := s.b().Set().Key(key).Value(rueidis.BinaryString(value)).Build()
	return opErr(db.OpSet, s.do(ctx, cmd).Error())
}

// SetNX stores value only when key is absent.
// It reports false without error when another writer got there first.
func (s *Store) SetNX(ctx context.Context, key string, value []byte) (bool, error) {
	cmd := s.b().Set().Key(key).Value(rueidis.BinaryString(value)).Nx().Build()
	err := s.do(ctx, cmd).Error()
	switch {
	case rueidis.IsRedisNil(err):
		return false, nil
	case err != nil:
		return false, opErr(db.OpSetNX, err)
	}
	return true, nil
}

// IncrBy atomically adds val to the integer at key.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	cmd := s.b().Incrby().Key(key).Increment(val).Build()
	return opErr(db.OpIncrBy, s.do(ctx, cmd).Error())
}

// Expire sets a TTL on key. With nx the TTL is only set when the key has none (EXPIRE NX).
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error {
	secs := s.b().Expire().Key(key).Seconds(int64(ttl / time.Second))
	var cmd rueidis.Completed
	if nx {
		cmd = secs.Nx().Build()
	} else {
		cmd = secs.Build()
	}
	return opErr(db.OpExpire, s.do(ctx, cmd).Error())
}
