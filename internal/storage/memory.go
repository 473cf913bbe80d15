package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"brdatabot/internal/domain"
)

// In-memory stores keep tests lightweight. They intentionally favor clarity
// over performance.

type InMemoryUserStore struct {
	mu    sync.RWMutex
	seq   int64
	users map[string]domain.User
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{users: make(map[string]domain.User)}
}

func userKey(platform domain.Platform, userID string) string {
	return string(platform) + ":" + userID
}

func (s *InMemoryUserStore) Upsert(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := userKey(user.Platform, user.UserID)
	now := time.Now().UTC()

	if existing, ok := s.users[key]; ok {
		existing.FirstName = user.FirstName
		existing.LastName = user.LastName
		existing.Username = user.Username
		existing.UpdatedAt = now
		existing.LastInteraction = now
		s.users[key] = existing
		return nil
	}

	s.seq++
	user.ID = s.seq
	user.CreatedAt = now
	user.UpdatedAt = now
	user.LastInteraction = now
	s.users[key] = user
	return nil
}

func (s *InMemoryUserStore) Find(_ context.Context, platform domain.Platform, userID string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[userKey(platform, userID)]; ok {
		return user, nil
	}
	return domain.User{}, ErrNotFound
}

func (s *InMemoryUserStore) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, limit, offset), nil
}

func (s *InMemoryUserStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

func (s *InMemoryUserStore) SetBlocked(_ context.Context, platform domain.Platform, userID string, blocked bool, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := userKey(platform, userID)
	user, ok := s.users[key]
	if !ok {
		return ErrNotFound
	}
	user.Blocked = blocked
	user.BlockReason = reason
	user.UpdatedAt = time.Now().UTC()
	s.users[key] = user
	return nil
}

type InMemoryQueryLogStore struct {
	mu   sync.RWMutex
	seq  int64
	logs []domain.QueryLog
}

func NewInMemoryQueryLogStore() *InMemoryQueryLogStore {
	return &InMemoryQueryLogStore{}
}

func (s *InMemoryQueryLogStore) Append(_ context.Context, entry domain.QueryLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	entry.ID = s.seq
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.logs = append(s.logs, entry)
	return nil
}

func (s *InMemoryQueryLogStore) List(_ context.Context, limit, offset int) ([]domain.QueryLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return paginate(append([]domain.QueryLog(nil), s.logs...), limit, offset), nil
}

func (s *InMemoryQueryLogStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.logs)), nil
}

func (s *InMemoryQueryLogStore) CountSince(_ context.Context, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, l := range s.logs {
		if !l.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryQueryLogStore) AvgResponseTimeMS(_ context.Context) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.logs) == 0 {
		return 0, nil
	}
	var total int64
	for _, l := range s.logs {
		total += l.ResponseTimeMS
	}
	return float64(total) / float64(len(s.logs)), nil
}

// Entries returns a copy of everything appended. Test helper.
func (s *InMemoryQueryLogStore) Entries() []domain.QueryLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.QueryLog(nil), s.logs...)
}

type InMemoryBlockedUserStore struct {
	mu      sync.RWMutex
	seq     int64
	blocked map[string]domain.BlockedUser
}

func NewInMemoryBlockedUserStore() *InMemoryBlockedUserStore {
	return &InMemoryBlockedUserStore{blocked: make(map[string]domain.BlockedUser)}
}

func (s *InMemoryBlockedUserStore) Insert(_ context.Context, blocked domain.BlockedUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	blocked.ID = s.seq
	if blocked.BlockedAt.IsZero() {
		blocked.BlockedAt = time.Now().UTC()
	}
	s.blocked[userKey(blocked.Platform, blocked.UserID)] = blocked
	return nil
}

func (s *InMemoryBlockedUserStore) Delete(_ context.Context, platform domain.Platform, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blocked, userKey(platform, userID))
	return nil
}

func (s *InMemoryBlockedUserStore) List(_ context.Context, limit, offset int) ([]domain.BlockedUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.BlockedUser, 0, len(s.blocked))
	for _, b := range s.blocked {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, limit, offset), nil
}

func (s *InMemoryBlockedUserStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.blocked)), nil
}

type InMemoryAdminLogStore struct {
	mu   sync.RWMutex
	logs []domain.AdminLog
}

func NewInMemoryAdminLogStore() *InMemoryAdminLogStore {
	return &InMemoryAdminLogStore{}
}

func (s *InMemoryAdminLogStore) Append(_ context.Context, entry domain.AdminLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.logs = append(s.logs, entry)
	return nil
}

func (s *InMemoryAdminLogStore) List(_ context.Context, limit, offset int) ([]domain.AdminLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return paginate(append([]domain.AdminLog(nil), s.logs...), limit, offset), nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
