package api

import (
	"context"
	"net/http"

	"github.com/vetterlabs/vetter/internal/domain/model"
)

// FeedDependencies defines the interface for feed reads.
type FeedDependencies interface {
	GetFeed(ctx context.Context, projectID string, limit int) (model.FeedView, error)
}

// FeedHandler serves a project's snapshot history.
type FeedHandler struct {
	deps FeedDependencies
}

// NewFeedHandler creates a new feed handler.
func NewFeedHandler(deps FeedDependencies) *FeedHandler {
	return &FeedHandler{deps: deps}
}

// HandleGetFeed handles GET /projects/{id}/feed requests.
// Snapshots come back newest first; limit caps the page size.
func (h *FeedHandler) HandleGetFeed(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	limit := queryInt(r.URL.Query().Get("limit"), 20)

	view, err := h.deps.GetFeed(r.Context(), projectID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if view.Snapshots == nil {
		view.Snapshots = []model.FeedSnapshot{}
	}
	writeJSON(w, http.StatusOK, view)
}
