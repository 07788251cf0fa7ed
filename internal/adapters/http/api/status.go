package api

import (
	"context"
	"net/http"

	"github.com/vetterlabs/vetter/internal/domain/model"
)

// StatusDependencies defines the interface for admin status transitions.
type StatusDependencies interface {
	FastTrack(ctx context.Context, projectID, actor string, role model.Role) (model.Project, error)
	MarkPartnership(ctx context.Context, projectID, actor string, role model.Role) (model.Project, error)
}

// StatusHandler handles admin-driven lifecycle transitions.
type StatusHandler struct {
	deps StatusDependencies
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(deps StatusDependencies) *StatusHandler {
	return &StatusHandler{deps: deps}
}

// HandleFastTrack handles POST /projects/{id}/fasttrack requests.
func (h *StatusHandler) HandleFastTrack(w http.ResponseWriter, r *http.Request) {
	project, err := h.deps.FastTrack(r.Context(), r.PathValue("id"), callerID(r), callerRole(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(project))
}

// HandlePartnership handles POST /projects/{id}/partnership requests.
func (h *StatusHandler) HandlePartnership(w http.ResponseWriter, r *http.Request) {
	project, err := h.deps.MarkPartnership(r.Context(), r.PathValue("id"), callerID(r), callerRole(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(project))
}
