package governance

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rateKeyPrefix     = "rate_limit:"
	blockKeyPrefix    = "blocked_user:"
	awaitingKeyPrefix = "awaiting_input:"
)

// RedisStore is the production Store. Counters rely on INCR atomicity so
// concurrent requests from the same user are counted correctly across
// instances.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client; its lifecycle stays with the caller.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func rateKey(platform, userID string) string     { return rateKeyPrefix + platform + ":" + userID }
func blockKey(platform, userID string) string    { return blockKeyPrefix + platform + ":" + userID }
func awaitingKey(platform, userID string) string { return awaitingKeyPrefix + platform + ":" + userID }

func (s *RedisStore) IncrementAndCheck(ctx context.Context, platform, userID string, limit int, window time.Duration) (Decision, error) {
	key := rateKey(platform, userID)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, err
	}

	// First increment in the window arms the expiry.
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return Decision{}, err
		}
	}

	if count > int64(limit) {
		ttl, err := s.client.TTL(ctx, key).Result()
		if err != nil || ttl < 0 {
			ttl = window
		}
		return Decision{Allowed: false, Count: count, RetryAfter: ttl}, nil
	}

	return Decision{Allowed: true, Count: count}, nil
}

func (s *RedisStore) IsBlocked(ctx context.Context, platform, userID string) (bool, error) {
	n, err := s.client.Exists(ctx, blockKey(platform, userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) Block(ctx context.Context, platform, userID string, duration time.Duration) error {
	// duration 0 stores the flag without expiry (permanent until Unblock).
	return s.client.Set(ctx, blockKey(platform, userID), "1", duration).Err()
}

func (s *RedisStore) Unblock(ctx context.Context, platform, userID string) error {
	return s.client.Del(ctx, blockKey(platform, userID)).Err()
}

func (s *RedisStore) ResetRate(ctx context.Context, platform, userID string) error {
	return s.client.Del(ctx, rateKey(platform, userID)).Err()
}

func (s *RedisStore) SetAwaiting(ctx context.Context, platform, userID, kind string, ttl time.Duration) error {
	return s.client.Set(ctx, awaitingKey(platform, userID), kind, ttl).Err()
}

func (s *RedisStore) Awaiting(ctx context.Context, platform, userID string) (string, bool, error) {
	kind, err := s.client.Get(ctx, awaitingKey(platform, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return kind, true, nil
}

func (s *RedisStore) ClearAwaiting(ctx context.Context, platform, userID string) error {
	return s.client.Del(ctx, awaitingKey(platform, userID)).Err()
}
