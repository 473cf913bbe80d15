package governance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"brdatabot/internal/governance/metrics"
)

// AwaitingTTL bounds how long a prompt command keeps the next free-text
// message bound to an input kind.
const AwaitingTTL = 5 * time.Minute

// Service applies the rate/block policy on top of a Store. It is the fail-open
// boundary: store errors are logged and counted, never surfaced as denials.
type Service struct {
	store   Store
	limit   int
	window  time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the governance service. A nil store disables enforcement
// entirely (everything allowed), matching the fail-open policy for an
// unconfigured Redis.
func New(store Store, limit int, window time.Duration, opts ...Option) (*Service, error) {
	if limit <= 0 {
		return nil, errors.New("rate limit ceiling must be positive")
	}
	if window <= 0 {
		return nil, errors.New("rate limit window must be positive")
	}

	svc := &Service{
		store:  store,
		limit:  limit,
		window: window,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Check runs the rate limit for one inbound message. Store failures allow the
// request through with a warning.
func (s *Service) Check(ctx context.Context, platform, userID string) Decision {
	if s.store == nil {
		return Decision{Allowed: true}
	}

	d, err := s.store.IncrementAndCheck(ctx, platform, userID, s.limit, s.window)
	if err != nil {
		s.logger.WarnContext(ctx, "rate limit check failed, allowing request",
			"platform", platform,
			"error", err,
		)
		s.recordFailOpen()
		return Decision{Allowed: true}
	}

	if s.metrics != nil {
		s.metrics.RecordRateCheck(d.Allowed)
	}
	if !d.Allowed {
		s.logger.WarnContext(ctx, "rate limit exceeded",
			"platform", platform,
			"retry_after_seconds", int(d.RetryAfter.Seconds()),
		)
	}
	return d
}

// IsBlocked reports whether the user carries a block flag. Store failures
// report not blocked.
func (s *Service) IsBlocked(ctx context.Context, platform, userID string) bool {
	if s.store == nil {
		return false
	}

	blocked, err := s.store.IsBlocked(ctx, platform, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "block check failed, treating user as not blocked",
			"platform", platform,
			"error", err,
		)
		s.recordFailOpen()
		return false
	}
	if blocked && s.metrics != nil {
		s.metrics.RecordBlockedDenial()
	}
	return blocked
}

// Block sets the block flag. Duration 0 blocks until an explicit Unblock.
func (s *Service) Block(ctx context.Context, platform, userID, reason string, duration time.Duration) error {
	if s.store == nil {
		return errors.New("governance store not configured")
	}
	if err := s.store.Block(ctx, platform, userID, duration); err != nil {
		return err
	}
	s.logger.WarnContext(ctx, "user blocked",
		"platform", platform,
		"reason", reason,
		"permanent", duration == 0,
	)
	return nil
}

// Unblock removes the block flag.
func (s *Service) Unblock(ctx context.Context, platform, userID string) error {
	if s.store == nil {
		return errors.New("governance store not configured")
	}
	if err := s.store.Unblock(ctx, platform, userID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "user unblocked", "platform", platform)
	return nil
}

// ResetRate clears the user's rate counter, restoring full quota immediately.
func (s *Service) ResetRate(ctx context.Context, platform, userID string) error {
	if s.store == nil {
		return errors.New("governance store not configured")
	}
	return s.store.ResetRate(ctx, platform, userID)
}

// SetAwaiting arms the conversational input marker for the user. Failures are
// swallowed: a lost marker degrades to the menu fallback, never to an error.
func (s *Service) SetAwaiting(ctx context.Context, platform, userID, kind string) {
	if s.store == nil {
		return
	}
	if err := s.store.SetAwaiting(ctx, platform, userID, kind, AwaitingTTL); err != nil {
		s.logger.WarnContext(ctx, "failed to set awaiting input state",
			"platform", platform,
			"kind", kind,
			"error", err,
		)
	}
}

// Awaiting returns the pending input kind for the user, if any.
func (s *Service) Awaiting(ctx context.Context, platform, userID string) (string, bool) {
	if s.store == nil {
		return "", false
	}
	kind, ok, err := s.store.Awaiting(ctx, platform, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read awaiting input state",
			"platform", platform,
			"error", err,
		)
		return "", false
	}
	return kind, ok
}

// ClearAwaiting drops the pending input marker.
func (s *Service) ClearAwaiting(ctx context.Context, platform, userID string) {
	if s.store == nil {
		return
	}
	if err := s.store.ClearAwaiting(ctx, platform, userID); err != nil {
		s.logger.WarnContext(ctx, "failed to clear awaiting input state",
			"platform", platform,
			"error", err,
		)
	}
}

func (s *Service) recordFailOpen() {
	if s.metrics != nil {
		s.metrics.RecordFailOpen()
	}
}
