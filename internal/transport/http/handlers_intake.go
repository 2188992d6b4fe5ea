package httptransport

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"calldex/internal/intake"
	"calldex/internal/intake/device"
	"calldex/internal/profile/models"
	"calldex/pkg/platform/sentinel"
	"calldex/pkg/requestcontext"
)

// IntakeHandler accepts evidence submissions. It delegates entirely to the
// intake service; the only transport-level work is decoding, caller identity,
// and the device fingerprint.
type IntakeHandler struct {
	intake  *intake.Service
	devices *device.Service
	logger  *slog.Logger
}

func NewIntakeHandler(svc *intake.Service, devices *device.Service, logger *slog.Logger) *IntakeHandler {
	return &IntakeHandler{intake: svc, devices: devices, logger: logger}
}

func (h *IntakeHandler) Register(r chi.Router) {
	r.Post("/v1/contributions", h.handleContribution)
	r.Post("/v1/spam-reports", h.handleSpamReport)
	r.Delete("/v1/spam-reports/{number}", h.handleRemoveSpamReport)
	r.Put("/v1/identities/{number}/name", h.handleSetVerifiedName)
	r.Post("/v1/contacts/sync", h.handleContactSync)
}

type contributionRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Name        string `json:"name"`
}

func (h *IntakeHandler) handleContribution(w http.ResponseWriter, r *http.Request) {
	var req contributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", sentinel.ErrInvalidInput))
		return
	}

	ctx := r.Context()
	err := h.intake.SubmitNameContribution(ctx, intake.NameSuggestion{
		Phone:             req.PhoneNumber,
		Name:              req.Name,
		ContributorID:     requestcontext.CallerID(ctx),
		Source:            models.SourceSuggestion,
		DeviceFingerprint: h.devices.ComputeFingerprint(requestcontext.UserAgent(ctx)),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type spamReportRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Reason      string `json:"reason"`
}

func (h *IntakeHandler) handleSpamReport(w http.ResponseWriter, r *http.Request) {
	caller := requestcontext.CallerID(r.Context())
	if caller.IsNil() {
		writeError(w, fmt.Errorf("%w: spam reports require an authenticated caller", sentinel.ErrInvalidInput))
		return
	}

	var req spamReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", sentinel.ErrInvalidInput))
		return
	}

	if err := h.intake.SubmitSpamReport(r.Context(), req.PhoneNumber, caller, req.Reason); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (h *IntakeHandler) handleRemoveSpamReport(w http.ResponseWriter, r *http.Request) {
	caller := requestcontext.CallerID(r.Context())
	if caller.IsNil() {
		writeError(w, fmt.Errorf("%w: report removal requires an authenticated caller", sentinel.ErrInvalidInput))
		return
	}

	if err := h.intake.RemoveSpamReport(r.Context(), chi.URLParam(r, "number"), caller); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type verifiedNameRequest struct {
	Name              string `json:"name"`
	VerificationLevel string `json:"verificationLevel"`
}

func (h *IntakeHandler) handleSetVerifiedName(w http.ResponseWriter, r *http.Request) {
	caller := requestcontext.CallerID(r.Context())
	if caller.IsNil() {
		writeError(w, fmt.Errorf("%w: verified names require an authenticated caller", sentinel.ErrInvalidInput))
		return
	}

	var req verifiedNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", sentinel.ErrInvalidInput))
		return
	}

	err := h.intake.SetVerifiedName(r.Context(), chi.URLParam(r, "number"), req.Name,
		models.VerificationLevel(req.VerificationLevel), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

type contactSyncRequest struct {
	Contacts []struct {
		PhoneNumber string `json:"phoneNumber"`
		Name        string `json:"name"`
	} `json:"contacts"`
}

func (h *IntakeHandler) handleContactSync(w http.ResponseWriter, r *http.Request) {
	var req contactSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", sentinel.ErrInvalidInput))
		return
	}
	if len(req.Contacts) == 0 {
		writeError(w, fmt.Errorf("%w: empty contact list", sentinel.ErrInvalidInput))
		return
	}

	entries := make([]intake.ContactEntry, 0, len(req.Contacts))
	for _, c := range req.Contacts {
		entries = append(entries, intake.ContactEntry{Phone: c.PhoneNumber, Name: c.Name})
	}

	ctx := r.Context()
	res, err := h.intake.SyncContacts(ctx, entries, requestcontext.CallerID(ctx),
		h.devices.ComputeFingerprint(requestcontext.UserAgent(ctx)))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{
		"accepted": res.Accepted,
		"skipped":  res.Skipped,
	})
}
