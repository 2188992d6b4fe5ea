package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on a Redis sorted set per key, scored by
// request time in nanoseconds. All replicas share one window.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := time.Now()
	cutoff := now.Add(-window).UnixNano()
	member := strconv.FormatInt(now.UnixNano(), 10)

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(cutoff, 10))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: member})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("ratelimit allow %s: %w", key, err)
	}

	count := int(card.Val())
	if count > limit {
		// Over budget: take back the slot the rejected request claimed so it
		// does not extend the lockout.
		if err := s.client.ZRem(ctx, key, member).Err(); err != nil {
			return nil, fmt.Errorf("ratelimit allow %s: %w", key, err)
		}
		return &Result{
			Allowed: false,
			Limit:   limit,
			ResetAt: s.resetAt(ctx, key, now, window),
		}, nil
	}

	return &Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - count,
		ResetAt:   s.resetAt(ctx, key, now, window),
	}, nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("ratelimit reset %s: %w", key, err)
	}
	return nil
}

// resetAt derives the window reset from the oldest surviving entry. Falls
// back to a full window from now when the set is empty or unreadable.
func (s *RedisStore) resetAt(ctx context.Context, key string, now time.Time, window time.Duration) time.Time {
	oldest, err := s.client.ZRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil || len(oldest) == 0 {
		return now.Add(window)
	}
	return time.Unix(0, int64(oldest[0].Score)).Add(window)
}
