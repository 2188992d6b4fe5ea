package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"calldex/internal/profile/models"
	"calldex/pkg/phone"
)

const (
	// Redis key prefix for cached profiles.
	profileKeyPrefix = "profile:"
	// negativeMarker is the stored value for a cached "not found".
	negativeMarker = "__absent__"
)

// redisTier is the shared keyed cache between the in-process LRU and the
// durable store. All service instances see the same tier-2 contents.
type redisTier struct {
	client      *redis.Client
	ttl         time.Duration
	negativeTTL time.Duration
}

func newRedisTier(client *redis.Client, ttl, negativeTTL time.Duration) *redisTier {
	return &redisTier{client: client, ttl: ttl, negativeTTL: negativeTTL}
}

// get returns (profile, negative, found).
func (t *redisTier) get(ctx context.Context, key phone.Number) (*models.NumberProfile, bool, bool, error) {
	raw, err := t.client.Get(ctx, profileKeyPrefix+key.String()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, false, nil
	}
	if err != nil {
		return nil, false, false, fmt.Errorf("redis get: %w", err)
	}
	if raw == negativeMarker {
		return nil, true, true, nil
	}
	var profile models.NumberProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		// A corrupt entry is treated as a miss; the durable store repopulates.
		return nil, false, false, nil
	}
	return &profile, false, true, nil
}

func (t *redisTier) set(ctx context.Context, key phone.Number, profile *models.NumberProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	return t.client.Set(ctx, profileKeyPrefix+key.String(), raw, t.ttl).Err()
}

func (t *redisTier) setNegative(ctx context.Context, key phone.Number) error {
	return t.client.Set(ctx, profileKeyPrefix+key.String(), negativeMarker, t.negativeTTL).Err()
}

func (t *redisTier) delete(ctx context.Context, keys ...phone.Number) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = profileKeyPrefix + k.String()
	}
	return t.client.Del(ctx, full...).Err()
}
