// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services; transport concerns (decoding, status mapping, middleware) stay
// here.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"calldex/internal/ratelimit"
)

// HealthProbe checks one backing dependency.
type HealthProbe func(ctx context.Context) error

// Registrar is implemented by every handler group.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires all public endpoints. A nil limits middleware disables
// rate limiting.
func NewRouter(logger *slog.Logger, probes map[string]HealthProbe, limits *ratelimit.Middleware, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(Recovery(logger))
	r.Use(RequestID)
	r.Use(ClientMetadata)
	r.Use(Caller)
	if limits != nil {
		r.Use(limits.Handler)
	}
	r.Use(Logger(logger))
	r.Use(Timeout(30 * time.Second))

	for _, h := range handlers {
		h.Register(r)
	}

	r.Get("/healthz", healthz(probes))
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// healthz pings every backing dependency with a short deadline. Any failing
// probe makes the whole check fail, with the failures named in the body.
func healthz(probes map[string]HealthProbe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(probes))
		for name, probe := range probes {
			if err := probe(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}
		writeJSON(w, status, results)
	}
}
