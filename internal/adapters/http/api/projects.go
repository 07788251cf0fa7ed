package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	repository "github.com/vetterlabs/vetter/internal/adapters/repository"
	"github.com/vetterlabs/vetter/internal/domain/model"
)

// ProjectDependencies defines the interface for project registry operations.
type ProjectDependencies interface {
	CreateProject(ctx context.Context, p model.Project, role model.Role) (model.Project, error)
	GetProject(ctx context.Context, id string) (model.Project, error)
	ListProjects(ctx context.Context, f repository.ProjectFilter, page, limit int) ([]model.Project, int, error)
}

// ProjectsHandler handles project registry requests.
type ProjectsHandler struct {
	deps ProjectDependencies
}

// NewProjectsHandler creates a new projects handler.
func NewProjectsHandler(deps ProjectDependencies) *ProjectsHandler {
	return &ProjectsHandler{deps: deps}
}

// projectRequest mirrors the OpenAPI schema for POST /projects.
type projectRequest struct {
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	Logo        string  `json:"logo"`
	Description string  `json:"description"`
	Website     string  `json:"website"`
	Twitter     string  `json:"twitter"`
	Telegram    string  `json:"telegram"`
	Liquidity   float64 `json:"liquidity"`
	Volume24h   float64 `json:"volume_24h"`
	Price       float64 `json:"price"`
}

type projectListResponse struct {
	Projects []projectResponse `json:"projects"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// HandleCreate handles POST /projects requests.
func (h *ProjectsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_project"
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	created, err := h.deps.CreateProject(r.Context(), model.Project{
		Name:        req.Name,
		Symbol:      req.Symbol,
		Logo:        req.Logo,
		Description: req.Description,
		Website:     req.Website,
		Twitter:     req.Twitter,
		Telegram:    req.Telegram,
		Liquidity:   req.Liquidity,
		Volume24h:   req.Volume24h,
		Price:       req.Price,
	}, callerRole(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectResponse(created))
}

// HandleList handles GET /projects requests.
// Query parameters: status, search, page, limit.
func (h *ProjectsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_projects"
	q := r.URL.Query()

	var filter repository.ProjectFilter
	if status := q.Get("status"); status != "" {
		s := model.Status(status)
		if !s.Valid() {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		filter.Status = s
	}
	filter.Search = q.Get("search")

	page := queryInt(q.Get("page"), 1)
	limit := queryInt(q.Get("limit"), 20)

	projects, total, err := h.deps.ListProjects(r.Context(), filter, page, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	out := make([]projectResponse, len(projects))
	for i, p := range projects {
		out[i] = toProjectResponse(p)
	}
	writeJSON(w, http.StatusOK, projectListResponse{
		Projects: out,
		Total:    total,
		Page:     page,
		Limit:    limit,
	})
}

// HandleGet handles GET /projects/{id} requests.
func (h *ProjectsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	project, err := h.deps.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(project))
}

// queryInt parses a positive integer query value, falling back to def.
func queryInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
