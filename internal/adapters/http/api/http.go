// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	repository "github.com/vetterlabs/vetter/internal/adapters/repository"
	"github.com/vetterlabs/vetter/internal/domain/approval"
	"github.com/vetterlabs/vetter/internal/domain/model"
	"github.com/vetterlabs/vetter/internal/domain/settings"
)

// Role and identity headers. Authentication is delegated to the gateway in
// front of this service; these headers carry its verdict.
const (
	roleHeader = "X-Vetter-Role"
	userHeader = "X-Vetter-User"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CreateProject(ctx context.Context, p model.Project, role model.Role) (model.Project, error)
	GetProject(ctx context.Context, id string) (model.Project, error)
	ListProjects(ctx context.Context, f repository.ProjectFilter, page, limit int) ([]model.Project, int, error)

	SubmitVote(ctx context.Context, projectID, userID string, ratings model.Ratings, role model.Role) (model.Project, bool, error)

	// EnqueueSnapshot pushes a snapshot for async ingestion. Returns false
	// on backpressure.
	EnqueueSnapshot(ctx context.Context, s model.FeedSnapshot) bool
	GetFeed(ctx context.Context, projectID string, limit int) (model.FeedView, error)

	GetROI(ctx context.Context, projectID string) (model.ROIRecord, error)

	FastTrack(ctx context.Context, projectID, actor string, role model.Role) (model.Project, error)
	MarkPartnership(ctx context.Context, projectID, actor string, role model.Role) (model.Project, error)

	CurrentSettings(ctx context.Context) settings.Settings
	UpdateSettings(ctx context.Context, next settings.Settings, actor string, role model.Role) (settings.Settings, error)
	SettingsAudit(ctx context.Context, role model.Role) ([]settings.AuditEntry, error)
}

// Server wires HTTP routes for the vetting API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	projectsHandler  *ProjectsHandler
	votesHandler     *VotesHandler
	snapshotsHandler *SnapshotsHandler
	feedHandler      *FeedHandler
	roiHandler       *ROIHandler
	statusHandler    *StatusHandler
	settingsHandler  *SettingsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		projectsHandler:  NewProjectsHandler(deps),
		votesHandler:     NewVotesHandler(deps),
		snapshotsHandler: NewSnapshotsHandler(deps),
		feedHandler:      NewFeedHandler(deps),
		roiHandler:       NewROIHandler(deps),
		statusHandler:    NewStatusHandler(deps),
		settingsHandler:  NewSettingsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /projects", MetricsMiddleware(s.projectsHandler.HandleCreate, "projects"))
	mux.HandleFunc("GET /projects", MetricsMiddleware(s.projectsHandler.HandleList, "projects"))
	mux.HandleFunc("GET /projects/{id}", MetricsMiddleware(s.projectsHandler.HandleGet, "project"))

	mux.HandleFunc("POST /projects/{id}/votes", MetricsMiddleware(s.votesHandler.HandleSubmitVote, "votes"))
	mux.HandleFunc("POST /projects/{id}/snapshots", MetricsMiddleware(s.snapshotsHandler.HandleIngest, "snapshots"))
	mux.HandleFunc("GET /projects/{id}/feed", MetricsMiddleware(s.feedHandler.HandleGetFeed, "feed"))
	mux.HandleFunc("GET /projects/{id}/roi", MetricsMiddleware(s.roiHandler.HandleGetROI, "roi"))

	mux.HandleFunc("POST /projects/{id}/fasttrack", MetricsMiddleware(s.statusHandler.HandleFastTrack, "fasttrack"))
	mux.HandleFunc("POST /projects/{id}/partnership", MetricsMiddleware(s.statusHandler.HandlePartnership, "partnership"))

	mux.HandleFunc("GET /settings", MetricsMiddleware(s.settingsHandler.HandleGet, "settings"))
	mux.HandleFunc("PUT /settings", MetricsMiddleware(s.settingsHandler.HandlePut, "settings"))
	mux.HandleFunc("GET /settings/audit", MetricsMiddleware(s.settingsHandler.HandleAudit, "settings_audit"))
}

// callerRole parses the gateway-asserted role header. Absent or unknown
// values degrade to GUEST.
func callerRole(r *http.Request) model.Role {
	return model.ParseRole(r.Header.Get(roleHeader))
}

// callerID returns the gateway-asserted user id, empty for anonymous calls.
func callerID(r *http.Request) string {
	return r.Header.Get(userHeader)
}

// projectResponse mirrors the OpenAPI schema for project reads.
type projectResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Symbol      string    `json:"symbol"`
	Logo        string    `json:"logo,omitempty"`
	Description string    `json:"description,omitempty"`
	Website     string    `json:"website,omitempty"`
	Twitter     string    `json:"twitter,omitempty"`
	Telegram    string    `json:"telegram,omitempty"`
	Status      string    `json:"status"`
	Score       *float64  `json:"score"`
	Votes       int       `json:"votes"`
	Liquidity   float64   `json:"liquidity"`
	Volume24h   float64   `json:"volume_24h"`
	Price       float64   `json:"price"`
	PriceChange float64   `json:"price_change"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// toProjectResponse converts the domain record to its wire shape. An
// unscored project serializes score as null, never as zero.
func toProjectResponse(p model.Project) projectResponse {
	resp := projectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Symbol:      p.Symbol,
		Logo:        p.Logo,
		Description: p.Description,
		Website:     p.Website,
		Twitter:     p.Twitter,
		Telegram:    p.Telegram,
		Status:      string(p.Status),
		Votes:       p.Votes,
		Liquidity:   p.Liquidity,
		Volume24h:   p.Volume24h,
		Price:       p.Price,
		PriceChange: p.PriceChange,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Scored {
		score := p.Score
		resp.Score = &score
	}
	return resp
}

type ackResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps domain error kinds onto HTTP statuses and
// machine-readable codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err)
	case errors.Is(err, model.ErrInvalidRating):
		writeError(w, http.StatusBadRequest, "invalid_rating", err)
	case errors.Is(err, model.ErrInvalidSnapshot):
		writeError(w, http.StatusBadRequest, "invalid_snapshot", err)
	case repository.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, model.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err)
	case errors.Is(err, model.ErrProjectNotVetting):
		writeError(w, http.StatusConflict, "not_vetting", err)
	case errors.Is(err, model.ErrVoteLimitExceeded):
		writeError(w, http.StatusConflict, "vote_limit_exceeded", err)
	case errors.Is(err, model.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err)
	case errors.Is(err, approval.ErrFastTrackBlocked):
		writeError(w, http.StatusConflict, "fast_track_blocked", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
