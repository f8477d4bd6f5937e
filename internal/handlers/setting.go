package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/kmills-dev/storyloom/internal/services"
	"github.com/kmills-dev/storyloom/pkg/storage"
	"github.com/kmills-dev/storyloom/pkg/story"
)

type SettingHandler struct {
	storage storage.Storage
	graph   *services.GraphService
	logger  *slog.Logger
}

func NewSettingHandler(st storage.Storage, graph *services.GraphService, logger *slog.Logger) *SettingHandler {
	return &SettingHandler{storage: st, graph: graph, logger: logger}
}

// ServeHTTP routes presentation setting operations.
// POST /v1/settings              - Create override (screen- or chapter-level)
// GET /v1/settings?projectId=    - List a project's overrides
// GET /v1/settings/{id}          - Read override
// PATCH /v1/settings/{id}        - Update override
// DELETE /v1/settings/{id}       - Delete override
// GET /v1/settings/resolve       - Resolve effective setting for a screen
func (h *SettingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/v1/settings/resolve" {
		if r.Method != http.MethodGet {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.handleResolve(w, r)
		return
	}

	id, rest, ok := pathID(r.URL.Path, "/v1/settings")
	if !ok || rest != "" {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid setting ID format")
		return
	}

	switch {
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

func (h *SettingHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var setting story.Setting
	if !decodeBody(w, r, h.logger, &setting) {
		return
	}
	if setting.ProjectID == uuid.Nil {
		writeError(w, h.logger, http.StatusBadRequest, "projectId is required")
		return
	}
	if (setting.ScreenID == uuid.Nil) == (setting.ChapterID == uuid.Nil) {
		writeError(w, h.logger, http.StatusBadRequest, "exactly one of screenId or chapterId is required")
		return
	}
	if err := h.storage.CreateSetting(r.Context(), &setting); err != nil {
		serviceError(w, h.logger, err, "create setting")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, setting)
}

func (h *SettingHandler) handleList(w http.ResponseWriter, r *http.Request) {
	projectID, ok := queryID(r, "projectId")
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "projectId query parameter is required")
		return
	}
	settings, err := h.storage.ListSettingsByProject(r.Context(), projectID)
	if err != nil {
		serviceError(w, h.logger, err, "list settings")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, settings)
}

func (h *SettingHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	setting, err := h.storage.GetSetting(r.Context(), id)
	if err != nil {
		serviceError(w, h.logger, err, "get setting")
		return
	}
	if setting == nil {
		writeError(w, h.logger, http.StatusNotFound, "Setting not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, setting)
}

func (h *SettingHandler) handleUpdate(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	existing, err := h.storage.GetSetting(r.Context(), id)
	if err != nil {
		serviceError(w, h.logger, err, "get setting")
		return
	}
	if existing == nil {
		writeError(w, h.logger, http.StatusNotFound, "Setting not found")
		return
	}

	var setting story.Setting
	if !decodeBody(w, r, h.logger, &setting) {
		return
	}
	setting.ID = id
	setting.ProjectID = existing.ProjectID
	setting.ScreenID = existing.ScreenID
	setting.ChapterID = existing.ChapterID
	if err := h.storage.UpdateSetting(r.Context(), &setting); err != nil {
		serviceError(w, h.logger, err, "update setting")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, setting)
}

func (h *SettingHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.storage.DeleteSetting(r.Context(), id); err != nil {
		serviceError(w, h.logger, err, "delete setting")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SettingHandler) handleResolve(w http.ResponseWriter, r *http.Request) {
	projectID, ok := queryID(r, "projectId")
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "projectId query parameter is required")
		return
	}
	// screenId and chapterId are both optional; the inheritance chain
	// falls through whatever is absent.
	screenID, _ := queryID(r, "screenId")
	chapterID, _ := queryID(r, "chapterId")

	resolved, err := h.graph.ResolveSetting(r.Context(), projectID, screenID, chapterID)
	if err != nil {
		serviceError(w, h.logger, err, "resolve setting")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, resolved)
}
