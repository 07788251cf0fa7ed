package api

import (
	"context"
	"net/http"

	"github.com/vetterlabs/vetter/internal/domain/model"
)

// ROIDependencies defines the interface for ROI reads.
type ROIDependencies interface {
	GetROI(ctx context.Context, projectID string) (model.ROIRecord, error)
}

// ROIHandler serves post-approval performance records.
type ROIHandler struct {
	deps ROIDependencies
}

// NewROIHandler creates a new ROI handler.
func NewROIHandler(deps ROIDependencies) *ROIHandler {
	return &ROIHandler{deps: deps}
}

// HandleGetROI handles GET /projects/{id}/roi requests. Projects still in
// vetting have no record and return 404.
func (h *ROIHandler) HandleGetROI(w http.ResponseWriter, r *http.Request) {
	rec, err := h.deps.GetROI(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
