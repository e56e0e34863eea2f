package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/netmatch/internal/db"
	"github.com/kailas-cloud/netmatch/internal/domain/usage"
)

type expireCall struct {
	key string
	ttl time.Duration
	nx  bool
}

type mockStore struct {
	data    map[string][]byte
	incrs   map[string]int64
	expires []expireCall
	getErr  error
	incrErr error
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}, incrs: map[string]int64{}}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) IncrBy(_ context.Context, key string, val int64) error {
	if m.incrErr != nil {
		return m.incrErr
	}
	m.incrs[key] += val
	return nil
}

func (m *mockStore) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	m.expires = append(m.expires, expireCall{key, ttl, nx})
	return nil
}

var at = time.Date(2026, 5, 17, 10, 0, 0, 0, time.UTC)

func TestAdd_DailyKeyAndTTL(t *testing.T) {
	ms := newMockStore()
	s := New(ms, "nm:", "openai")

	if err := s.Add(context.Background(), usage.PeriodDay, at, 120); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ms.incrs["nm:budget:openai:daily:2026-05-17"] != 120 {
		t.Errorf("incrs = %v", ms.incrs)
	}
	if len(ms.expires) != 1 || ms.expires[0].ttl != DefaultDailyTTL || !ms.expires[0].nx {
		t.Errorf("expires = %+v", ms.expires)
	}
}

func TestAdd_MonthlyKey(t *testing.T) {
	ms := newMockStore()
	s := New(ms, "nm:", "gemini")

	if err := s.Add(context.Background(), usage.PeriodMonth, at, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ms.incrs["nm:budget:gemini:monthly:2026-05"] != 5 {
		t.Errorf("incrs = %v", ms.incrs)
	}
	if ms.expires[0].ttl != DefaultMonthlyTTL {
		t.Errorf("ttl = %v", ms.expires[0].ttl)
	}
}

func TestAdd_IncrError(t *testing.T) {
	ms := newMockStore()
	ms.incrErr = errors.New("down")
	s := New(ms, "nm:", "openai")

	if err := s.Add(context.Background(), usage.PeriodDay, at, 1); err == nil {
		t.Fatal("expected error")
	}
	if len(ms.expires) != 0 {
		t.Error("EXPIRE must not run after a failed INCRBY")
	}
}

func TestUsed(t *testing.T) {
	ms := newMockStore()
	ms.data["nm:budget:openai:daily:2026-05-17"] = []byte("42")
	s := New(ms, "nm:", "openai")

	got, err := s.Used(context.Background(), usage.PeriodDay, at)
	if err != nil || got != 42 {
		t.Fatalf("Used() = %d, %v", got, err)
	}

	got, err = s.Used(context.Background(), usage.PeriodMonth, at)
	if err != nil || got != 0 {
		t.Fatalf("Used(missing) = %d, %v", got, err)
	}
}

func TestUsed_ParseError(t *testing.T) {
	ms := newMockStore()
	ms.data["nm:budget:openai:monthly:2026-05"] = []byte("NaN")
	s := New(ms, "nm:", "openai")

	if _, err := s.Used(context.Background(), usage.PeriodMonth, at); err == nil {
		t.Fatal("expected parse error")
	}
}
