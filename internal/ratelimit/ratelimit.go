// Package ratelimit throttles API abuse with a sliding-window limiter keyed
// by caller identity, falling back to client IP for anonymous requests. The
// window state lives in Redis when available so limits hold across replicas;
// a single instance can run on the in-memory store.
package ratelimit

import (
	"context"
	"time"
)

// Class groups endpoints that share a limit.
type Class string

const (
	ClassLookup Class = "lookup"
	ClassIntake Class = "intake"
	ClassAdmin  Class = "admin"
)

// Limit is the budget for one class.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Result is one admission decision.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns the whole seconds until the window resets, at least 1.
func (r *Result) RetryAfter() int {
	secs := int(time.Until(r.ResetAt).Seconds())
	if secs < 1 {
		return 1
	}
	return secs
}

// Store counts requests per key within a sliding window.
type Store interface {
	// Allow records one request against the key and reports whether it fits
	// within limit for the window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
	// Reset clears the window for a key.
	Reset(ctx context.Context, key string) error
}

// Limiter applies per-class budgets on top of a Store.
type Limiter struct {
	store  Store
	limits map[Class]Limit
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

// WithLimit overrides the budget for one class. A zero Requests value
// removes the class from enforcement.
func WithLimit(class Class, limit Limit) LimiterOption {
	return func(l *Limiter) {
		if limit.Requests <= 0 {
			delete(l.limits, class)
			return
		}
		l.limits[class] = limit
	}
}

// NewLimiter creates a limiter with default per-minute budgets.
func NewLimiter(store Store, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		store: store,
		limits: map[Class]Limit{
			ClassLookup: {Requests: 120, Window: time.Minute},
			ClassIntake: {Requests: 30, Window: time.Minute},
			ClassAdmin:  {Requests: 10, Window: time.Minute},
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check admits or rejects one request for the key under the class budget.
// Classes without a configured budget always admit.
func (l *Limiter) Check(ctx context.Context, key string, class Class) (*Result, error) {
	limit, ok := l.limits[class]
	if !ok {
		return &Result{Allowed: true}, nil
	}

	result, err := l.store.Allow(ctx, "ratelimit:"+string(class)+":"+key, limit.Requests, limit.Window)
	if err != nil {
		return nil, err
	}
	decisions.WithLabelValues(string(class), outcome(result.Allowed)).Inc()
	return result, nil
}

func outcome(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "rejected"
}
