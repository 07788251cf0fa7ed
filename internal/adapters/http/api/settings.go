package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vetterlabs/vetter/internal/domain/model"
	"github.com/vetterlabs/vetter/internal/domain/settings"
)

// SettingsDependencies defines the interface for admin settings operations.
type SettingsDependencies interface {
	CurrentSettings(ctx context.Context) settings.Settings
	UpdateSettings(ctx context.Context, next settings.Settings, actor string, role model.Role) (settings.Settings, error)
	SettingsAudit(ctx context.Context, role model.Role) ([]settings.AuditEntry, error)
}

// SettingsHandler handles admin settings requests.
type SettingsHandler struct {
	deps SettingsDependencies
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(deps SettingsDependencies) *SettingsHandler {
	return &SettingsHandler{deps: deps}
}

// HandleGet handles GET /settings requests. Reading is open to any caller;
// thresholds are public information in the dashboard.
func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.CurrentSettings(r.Context()))
}

// HandlePut handles PUT /settings requests.
func (h *SettingsHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_settings"

	var next settings.Settings
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	updated, err := h.deps.UpdateSettings(r.Context(), next, callerID(r), callerRole(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleAudit handles GET /settings/audit requests.
func (h *SettingsHandler) HandleAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deps.SettingsAudit(r.Context(), callerRole(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []settings.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
