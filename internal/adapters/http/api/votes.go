package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vetterlabs/vetter/internal/domain/model"
)

// VoteDependencies defines the interface for vote operations.
type VoteDependencies interface {
	SubmitVote(ctx context.Context, projectID, userID string, ratings model.Ratings, role model.Role) (model.Project, bool, error)
}

// VotesHandler handles ballot submissions.
type VotesHandler struct {
	deps VoteDependencies
}

// NewVotesHandler creates a new votes handler.
func NewVotesHandler(deps VoteDependencies) *VotesHandler {
	return &VotesHandler{deps: deps}
}

// voteRequest mirrors the OpenAPI schema for POST /projects/{id}/votes.
// The voter identity comes from the gateway headers, not the body.
type voteRequest struct {
	Ratings model.Ratings `json:"ratings"`
}

type voteResponse struct {
	Status   string          `json:"status"`
	Replaced bool            `json:"replaced"`
	Project  projectResponse `json:"project"`
}

// HandleSubmitVote handles POST /projects/{id}/votes requests.
func (h *VotesHandler) HandleSubmitVote(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_vote"

	userID := callerID(r)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errors.New("missing "+userHeader+" header")))
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	project, replaced, err := h.deps.SubmitVote(r.Context(), r.PathValue("id"), userID, req.Ratings, callerRole(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, voteResponse{
		Status:   "recorded",
		Replaced: replaced,
		Project:  toProjectResponse(project),
	})
}
