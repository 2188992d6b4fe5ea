package httptransport

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"calldex/internal/intake"
	"calldex/pkg/platform/sentinel"
)

// AdminHandler exposes operational endpoints. Access control sits in front of
// this service; no auth logic here.
type AdminHandler struct {
	intake *intake.Service
	logger *slog.Logger
}

func NewAdminHandler(svc *intake.Service, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{intake: svc, logger: logger}
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Post("/admin/rebuild", h.handleRebuild)
}

type rebuildRequest struct {
	PhoneNumbers []string `json:"phoneNumbers,omitempty"`
	All          bool     `json:"all,omitempty"`
}

func (h *AdminHandler) handleRebuild(w http.ResponseWriter, r *http.Request) {
	var req rebuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", sentinel.ErrInvalidInput))
		return
	}

	if req.All {
		scheduled, err := h.intake.RebuildAll(r.Context())
		if err != nil {
			h.logger.ErrorContext(r.Context(), "full rebuild scan failed",
				"scheduled", scheduled, "error", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]int{"scheduled": scheduled})
		return
	}

	if err := h.intake.RebuildNumbers(r.Context(), req.PhoneNumbers); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"scheduled": len(req.PhoneNumbers)})
}
