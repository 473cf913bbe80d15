// Package governance owns per-user request governance: fixed-window rate
// counters, block flags and short-lived conversational session state, all
// keyed by (platform, user id). The backing store is Redis; when Redis is
// unreachable or unconfigured every check fails open, trading strictness for
// availability.
package governance

import (
	"context"
	"time"
)

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed    bool
	Count      int64
	RetryAfter time.Duration // positive only when not allowed
}

// Store is the raw counter/flag store. Implementations must make the
// increment atomic per key; read-modify-write is not acceptable under
// concurrent requests from the same user.
type Store interface {
	// IncrementAndCheck atomically increments the (platform, user) counter,
	// arming the window expiry on the first increment, and reports whether
	// the post-increment count is within limit.
	IncrementAndCheck(ctx context.Context, platform, userID string, limit int, window time.Duration) (Decision, error)

	// IsBlocked reports whether a block flag exists for the user.
	IsBlocked(ctx context.Context, platform, userID string) (bool, error)

	// Block sets the block flag. A zero duration means permanent.
	Block(ctx context.Context, platform, userID string, duration time.Duration) error

	// Unblock removes the block flag.
	Unblock(ctx context.Context, platform, userID string) error

	// ResetRate removes the rate counter, restoring full quota immediately.
	ResetRate(ctx context.Context, platform, userID string) error

	// SetAwaiting records which input kind the user's next free-text message
	// should be interpreted as. TTL bounds how long the prompt stays armed.
	SetAwaiting(ctx context.Context, platform, userID, kind string, ttl time.Duration) error

	// Awaiting returns the pending input kind, or ok=false when none is set.
	Awaiting(ctx context.Context, platform, userID string) (kind string, ok bool, err error)

	// ClearAwaiting removes the pending input marker.
	ClearAwaiting(ctx context.Context, platform, userID string) error
}
