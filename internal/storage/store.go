// Package storage owns all relational persistence: users, anonymized query
// logs, blocked users and the admin audit trail.
package storage

import (
	"context"
	"time"

	"brdatabot/internal/domain"
)

// Stores are interface-driven to keep the domain logic testable and to allow
// swapping in-memory and Postgres persistence without rewiring business code.

// UserStore persists bot users, keyed by (user_id, platform).
type UserStore interface {
	// Upsert inserts the user on first contact, otherwise refreshes names and
	// the last-interaction timestamp. It never creates duplicate rows for the
	// same identity tuple.
	Upsert(ctx context.Context, user domain.User) error
	Find(ctx context.Context, platform domain.Platform, userID string) (domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	Count(ctx context.Context) (int64, error)
	SetBlocked(ctx context.Context, platform domain.Platform, userID string, blocked bool, reason string) error
}

// QueryLogStore appends and reads the anonymized lookup trail.
type QueryLogStore interface {
	Append(ctx context.Context, entry domain.QueryLog) error
	List(ctx context.Context, limit, offset int) ([]domain.QueryLog, error)
	Count(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	AvgResponseTimeMS(ctx context.Context) (float64, error)
}

// BlockedUserStore persists block records alongside the governance flags.
type BlockedUserStore interface {
	Insert(ctx context.Context, blocked domain.BlockedUser) error
	Delete(ctx context.Context, platform domain.Platform, userID string) error
	List(ctx context.Context, limit, offset int) ([]domain.BlockedUser, error)
	Count(ctx context.Context) (int64, error)
}

// AdminLogStore appends the admin action audit trail.
type AdminLogStore interface {
	Append(ctx context.Context, entry domain.AdminLog) error
	List(ctx context.Context, limit, offset int) ([]domain.AdminLog, error)
}
