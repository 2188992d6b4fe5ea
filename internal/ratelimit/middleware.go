package ratelimit

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"calldex/pkg/requestcontext"
)

// Middleware enforces class budgets on the HTTP surface. Requests are keyed
// by the authenticated caller when present, otherwise by client IP. A store
// failure fails open: serving without a limit beats refusing traffic.
type Middleware struct {
	limiter *Limiter
	logger  *slog.Logger
}

func NewMiddleware(limiter *Limiter, logger *slog.Logger) *Middleware {
	return &Middleware{limiter: limiter, logger: logger}
}

// Handler classifies the route and applies its class budget. Routes outside
// the known classes pass through unlimited.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		class := classify(r)
		if class == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		result, err := m.limiter.Check(ctx, callerKey(ctx), class)
		if err != nil {
			m.logger.ErrorContext(ctx, "rate limit check failed", "class", class, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		addHeaders(w, result)
		if !result.Allowed {
			writeExceeded(w, result)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func classify(r *http.Request) Class {
	switch {
	case strings.HasPrefix(r.URL.Path, "/v1/lookup/"):
		return ClassLookup
	case strings.HasPrefix(r.URL.Path, "/admin/"):
		return ClassAdmin
	case strings.HasPrefix(r.URL.Path, "/v1/"):
		return ClassIntake
	}
	return ""
}

func callerKey(ctx context.Context) string {
	if caller := requestcontext.CallerID(ctx); !caller.IsNil() {
		return caller.String()
	}
	return "ip:" + requestcontext.ClientIP(ctx)
}

func addHeaders(w http.ResponseWriter, result *Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeExceeded(w http.ResponseWriter, result *Result) {
	retryAfter := result.RetryAfter()
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(map[string]any{
		"error":      "rate_limit_exceeded",
		"message":    "Too many requests. Please try again later.",
		"retryAfter": retryAfter,
	})
}
