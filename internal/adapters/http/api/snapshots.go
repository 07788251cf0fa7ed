package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/vetterlabs/vetter/internal/domain/model"
)

// SnapshotDependencies defines the interface for snapshot ingestion.
type SnapshotDependencies interface {
	GetProject(ctx context.Context, id string) (model.Project, error)
	EnqueueSnapshot(ctx context.Context, s model.FeedSnapshot) bool
}

// SnapshotsHandler accepts feed snapshot deliveries for async ingestion.
type SnapshotsHandler struct {
	deps SnapshotDependencies
}

// NewSnapshotsHandler creates a new snapshots handler.
func NewSnapshotsHandler(deps SnapshotDependencies) *SnapshotsHandler {
	return &SnapshotsHandler{deps: deps}
}

// HandleIngest handles POST /projects/{id}/snapshots requests.
//
// The snapshot is validated and queued; ingestion itself is asynchronous.
// Redelivered snapshots are absorbed idempotently and still acknowledged.
func (h *SnapshotsHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	const op = "api.ingest_snapshot"

	var snap model.FeedSnapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	snap.ProjectID = r.PathValue("id")
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now().UTC()
	}
	if err := snap.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	// Reject unknown projects synchronously; queueing them would only
	// surface the error in a worker log.
	if _, err := h.deps.GetProject(r.Context(), snap.ProjectID); err != nil {
		writeDomainError(w, err)
		return
	}

	if !h.deps.EnqueueSnapshot(r.Context(), snap) {
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
