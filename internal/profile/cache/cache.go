// Package cache implements the multi-tier read-through profile cache: an
// in-process LRU, a shared Redis tier, and the durable profile store. The
// cache performs no business computation; it serves whatever the profile
// worker last wrote, and it is only correct because the worker invalidates it
// after every durable write.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"calldex/internal/profile/models"
	"calldex/internal/profile/store"
	"calldex/pkg/phone"
	"calldex/pkg/platform/sentinel"
)

// Config bounds the cache tiers. Zero values fall back to defaults.
type Config struct {
	LocalCapacity int           // default 10000
	LocalTTL      time.Duration // default 5m
	SharedTTL     time.Duration // default 24h
	NegativeTTL   time.Duration // default 5m
	SweepInterval time.Duration // default 30s
}

func (c *Config) applyDefaults() {
	if c.LocalCapacity <= 0 {
		c.LocalCapacity = 10000
	}
	if c.LocalTTL <= 0 {
		c.LocalTTL = 5 * time.Minute
	}
	if c.SharedTTL <= 0 {
		c.SharedTTL = 24 * time.Hour
	}
	if c.NegativeTTL <= 0 {
		c.NegativeTTL = 5 * time.Minute
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 30 * time.Second
	}
}

// MultiTier is the read-through cache in front of the durable profile store.
type MultiTier struct {
	local    *LRU
	shared   *redisTier // nil when Redis is not configured
	profiles store.ProfileStore
	cfg      Config
	logger   *slog.Logger
}

// Option configures a MultiTier.
type Option func(*MultiTier)

func WithLogger(logger *slog.Logger) Option {
	return func(c *MultiTier) { c.logger = logger }
}

// New builds the cache. A nil Redis client disables the shared tier; lookups
// then go LRU -> durable store.
func New(profiles store.ProfileStore, redisClient *redis.Client, cfg Config, opts ...Option) *MultiTier {
	cfg.applyDefaults()
	c := &MultiTier{
		local:    NewLRU(cfg.LocalCapacity, cfg.LocalTTL),
		profiles: profiles,
		cfg:      cfg,
		logger:   slog.Default(),
	}
	if redisClient != nil {
		c.shared = newRedisTier(redisClient, cfg.SharedTTL, cfg.NegativeTTL)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start runs the LRU sweeper until ctx is cancelled.
func (c *MultiTier) Start(ctx context.Context) {
	c.local.StartSweeper(ctx, c.cfg.SweepInterval)
}

// Get consults the tiers in order, populating faster tiers on a hit from a
// slower one. A durable-store miss is cached as a negative sentinel so
// storms of lookups for unknown numbers never reach Postgres.
func (c *MultiTier) Get(ctx context.Context, number phone.Number) (*models.NumberProfile, error) {
	start := time.Now()
	defer func() {
		getDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if profile, negative, ok := c.local.Get(number); ok {
		if negative {
			negativeHits.Inc()
			return nil, sentinel.ErrNotFound
		}
		tierHits.WithLabelValues("local").Inc()
		return profile, nil
	}

	if c.shared != nil {
		profile, negative, found, err := c.shared.get(ctx, number)
		switch {
		case err != nil:
			// Tier outage degrades to the durable store.
			c.logger.WarnContext(ctx, "shared cache tier unavailable", "error", err)
		case found && negative:
			c.local.SetNegative(number)
			negativeHits.Inc()
			return nil, sentinel.ErrNotFound
		case found:
			c.local.Set(number, profile)
			tierHits.WithLabelValues("shared").Inc()
			return profile, nil
		}
	}

	profile, err := c.profiles.GetByPhone(ctx, number)
	if errors.Is(err, sentinel.ErrNotFound) {
		c.cacheNegative(ctx, number)
		tierMisses.Inc()
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	c.local.Set(number, profile)
	if c.shared != nil {
		if err := c.shared.set(ctx, number, profile); err != nil {
			c.logger.WarnContext(ctx, "shared cache populate failed", "error", err)
		}
	}
	tierHits.WithLabelValues("store").Inc()
	return profile, nil
}

// Invalidate removes the key from tiers 1 and 2. The durable row is the
// source of truth and is never deleted here.
func (c *MultiTier) Invalidate(ctx context.Context, number phone.Number) error {
	return c.InvalidateMany(ctx, []phone.Number{number})
}

// InvalidateMany removes a batch of keys from tiers 1 and 2.
func (c *MultiTier) InvalidateMany(ctx context.Context, numbers []phone.Number) error {
	for _, n := range numbers {
		c.local.Delete(n)
	}
	invalidations.Add(float64(len(numbers)))
	if c.shared == nil {
		return nil
	}
	if err := c.shared.delete(ctx, numbers...); err != nil {
		return fmt.Errorf("invalidate shared tier: %w", err)
	}
	return nil
}

func (c *MultiTier) cacheNegative(ctx context.Context, number phone.Number) {
	c.local.SetNegative(number)
	if c.shared != nil {
		if err := c.shared.setNegative(ctx, number); err != nil {
			c.logger.WarnContext(ctx, "negative cache populate failed", "error", err)
		}
	}
}
