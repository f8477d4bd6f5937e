package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/kmills-dev/storyloom/internal/services"
	"github.com/kmills-dev/storyloom/pkg/storage"
	"github.com/kmills-dev/storyloom/pkg/story"
)

type ProjectHandler struct {
	storage storage.Storage
	graph   *services.GraphService
	logger  *slog.Logger
}

func NewProjectHandler(st storage.Storage, graph *services.GraphService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{storage: st, graph: graph, logger: logger}
}

// ServeHTTP routes project operations.
// POST /v1/projects                 - Create project
// GET /v1/projects?userId=          - List projects for a user
// GET /v1/projects/{id}             - Read project
// PATCH /v1/projects/{id}           - Update project
// DELETE /v1/projects/{id}          - Delete project
// POST /v1/projects/{id}/colors     - Add a palette color
// GET /v1/projects/{id}/export      - Export the full project bundle
func (h *ProjectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, rest, ok := pathID(r.URL.Path, "/v1/projects")
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid project ID format")
		return
	}

	switch {
	case rest == "colors" && r.Method == http.MethodPost:
		h.handleAddColor(w, r, id)
	case rest == "export" && r.Method == http.MethodGet:
		h.handleExport(w, r, id)
	case rest != "":
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	case r.Method == http.MethodPost:
		h.handleCreate(w, r)
	case r.Method == http.MethodGet && id == uuid.Nil:
		h.handleList(w, r)
	case r.Method == http.MethodGet:
		h.handleRead(w, r, id)
	case r.Method == http.MethodPatch && id != uuid.Nil:
		h.handleUpdate(w, r, id)
	case r.Method == http.MethodDelete && id != uuid.Nil:
		h.handleDelete(w, r, id)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *ProjectHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var project story.Project
	if !decodeBody(w, r, h.logger, &project) {
		return
	}
	if project.UserID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "userId is required")
		return
	}
	if project.Title == "" {
		writeError(w, h.logger, http.StatusBadRequest, "title is required")
		return
	}
	if err := h.storage.CreateProject(r.Context(), &project); err != nil {
		serviceError(w, h.logger, err, "create project")
		return
	}
	h.logger.Info("Project created", "project_id", project.ID, "user_id", project.UserID)
	writeJSON(w, h.logger, http.StatusCreated, project)
}

func (h *ProjectHandler) handleList(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "userId query parameter is required")
		return
	}
	projects, err := h.storage.ListProjectsByUser(r.Context(), userID)
	if err != nil {
		serviceError(w, h.logger, err, "list projects")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, projects)
}

func (h *ProjectHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	project, err := h.storage.GetProject(r.Context(), id)
	if err != nil {
		serviceError(w, h.logger, err, "get project")
		return
	}
	if project == nil {
		writeError(w, h.logger, http.StatusNotFound, "Project not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, project)
}

func (h *ProjectHandler) handleUpdate(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	existing, err := h.storage.GetProject(r.Context(), id)
	if err != nil {
		serviceError(w, h.logger, err, "get project")
		return
	}
	if existing == nil {
		writeError(w, h.logger, http.StatusNotFound, "Project not found")
		return
	}

	var project story.Project
	if !decodeBody(w, r, h.logger, &project) {
		return
	}
	project.ID = id
	if project.UserID == "" {
		project.UserID = existing.UserID
	}
	if err := h.storage.UpdateProject(r.Context(), &project); err != nil {
		serviceError(w, h.logger, err, "update project")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, project)
}

func (h *ProjectHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.storage.DeleteProject(r.Context(), id); err != nil {
		serviceError(w, h.logger, err, "delete project")
		return
	}
	h.logger.Info("Project deleted", "project_id", id)
	w.WriteHeader(http.StatusNoContent)
}

type AddColorRequest struct {
	Color  string   `json:"color"`
	Pinned []string `json:"pinned,omitempty"`
}

func (h *ProjectHandler) handleAddColor(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if id == uuid.Nil {
		writeError(w, h.logger, http.StatusBadRequest, "Project ID is required")
		return
	}
	var req AddColorRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}
	if req.Color == "" {
		writeError(w, h.logger, http.StatusBadRequest, "color is required")
		return
	}
	project, err := h.graph.AddProjectColor(r.Context(), id, req.Color, req.Pinned)
	if err != nil {
		serviceError(w, h.logger, err, "add project color")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, project)
}

func (h *ProjectHandler) handleExport(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if id == uuid.Nil {
		writeError(w, h.logger, http.StatusBadRequest, "Project ID is required")
		return
	}
	export, err := h.graph.ExportProject(r.Context(), id)
	if err != nil {
		serviceError(w, h.logger, err, "export project")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, export)
}
