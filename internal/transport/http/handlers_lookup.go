package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"calldex/internal/lookup"
	"calldex/pkg/requestcontext"
)

// callerHeader carries the authenticated caller's contributor ID, set by the
// upstream auth layer. Absent for anonymous lookups.
const callerHeader = "X-Caller-ID"

// LookupHandler serves the read path.
type LookupHandler struct {
	lookup *lookup.Service
	logger *slog.Logger
}

func NewLookupHandler(svc *lookup.Service, logger *slog.Logger) *LookupHandler {
	return &LookupHandler{lookup: svc, logger: logger}
}

func (h *LookupHandler) Register(r chi.Router) {
	r.Get("/v1/lookup/{number}", h.handleLookup)
}

func (h *LookupHandler) handleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := h.lookup.Lookup(ctx, chi.URLParam(r, "number"), requestcontext.CallerID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
