package governance

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used by tests and single-instance
// deployments without Redis. Semantics mirror RedisStore: fixed window armed
// on first increment, key-existence block flags, TTL'd awaiting markers.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*counter
	blocked  map[string]time.Time // zero time = permanent
	awaiting map[string]awaitEntry

	now func() time.Time
}

type counter struct {
	count   int64
	resetAt time.Time
}

type awaitEntry struct {
	kind      string
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-memory governance store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: make(map[string]*counter),
		blocked:  make(map[string]time.Time),
		awaiting: make(map[string]awaitEntry),
		now:      time.Now,
	}
}

func (s *MemoryStore) IncrementAndCheck(_ context.Context, platform, userID string, limit int, window time.Duration) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := rateKey(platform, userID)
	now := s.now()

	c := s.counters[key]
	if c == nil || now.After(c.resetAt) {
		c = &counter{resetAt: now.Add(window)}
		s.counters[key] = c
	}
	c.count++

	if c.count > int64(limit) {
		return Decision{Allowed: false, Count: c.count, RetryAfter: c.resetAt.Sub(now)}, nil
	}
	return Decision{Allowed: true, Count: c.count}, nil
}

func (s *MemoryStore) IsBlocked(_ context.Context, platform, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := blockKey(platform, userID)
	until, ok := s.blocked[key]
	if !ok {
		return false, nil
	}
	if !until.IsZero() && s.now().After(until) {
		delete(s.blocked, key)
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) Block(_ context.Context, platform, userID string, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var until time.Time
	if duration > 0 {
		until = s.now().Add(duration)
	}
	s.blocked[blockKey(platform, userID)] = until
	return nil
}

func (s *MemoryStore) Unblock(_ context.Context, platform, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blocked, blockKey(platform, userID))
	return nil
}

func (s *MemoryStore) ResetRate(_ context.Context, platform, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, rateKey(platform, userID))
	return nil
}

func (s *MemoryStore) SetAwaiting(_ context.Context, platform, userID, kind string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.awaiting[awaitingKey(platform, userID)] = awaitEntry{kind: kind, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Awaiting(_ context.Context, platform, userID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := awaitingKey(platform, userID)
	e, ok := s.awaiting[key]
	if !ok {
		return "", false, nil
	}
	if s.now().After(e.expiresAt) {
		delete(s.awaiting, key)
		return "", false, nil
	}
	return e.kind, true, nil
}

func (s *MemoryStore) ClearAwaiting(_ context.Context, platform, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.awaiting, awaitingKey(platform, userID))
	return nil
}
