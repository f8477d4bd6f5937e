package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/kmills-dev/storyloom/internal/services"
	"github.com/kmills-dev/storyloom/pkg/storage"
	"github.com/kmills-dev/storyloom/pkg/story"
)

type ChapterHandler struct {
	storage storage.Storage
	graph   *services.GraphService
	logger  *slog.Logger
}

func NewChapterHandler(st storage.Storage, graph *services.GraphService, logger *slog.Logger) *ChapterHandler {
	return &ChapterHandler{storage: st, graph: graph, logger: logger}
}

// ServeHTTP routes chapter operations.
// POST /v1/chapters                - Create chapter (appended last)
// GET /v1/chapters?projectId=      - List a project's chapters in order
// GET /v1/chapters/{id}            - Read chapter
// PATCH /v1/chapters/{id}          - Update chapter
// DELETE /v1/chapters/{id}         - Delete chapter (cascades)
// POST /v1/chapters/reorder        - Apply a full reorder
func (h *ChapterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/v1/chapters/reorder" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.handleReorder(w, r)
		return
	}

	id, rest, ok := pathID(r.URL.Path, "/v1/chapters")
	if !ok || rest != "" {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid chapter ID format")
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

func (h *ChapterHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var chapter story.Chapter
	if !decodeBody(w, r, h.logger, &chapter) {
		return
	}
	if chapter.ProjectID == uuid.Nil {
		writeError(w, h.logger, http.StatusBadRequest, "projectId is required")
		return
	}
	if err := h.graph.CreateChapter(r.Context(), &chapter); err != nil {
		serviceError(w, h.logger, err, "create chapter")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, chapter)
}

func (h *ChapterHandler) handleList(w http.ResponseWriter, r *http.Request) {
	projectID, ok := queryID(r, "projectId")
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "projectId query parameter is required")
		return
	}
	chapters, err := h.storage.ListChaptersByProject(r.Context(), projectID)
	if err != nil {
		serviceError(w, h.logger, err, "list chapters")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, chapters)
}

func (h *ChapterHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	chapter, err := h.storage.GetChapter(r.Context(), id)
	if err != nil {
		serviceError(w, h.logger, err, "get chapter")
		return
	}
	if chapter == nil {
		writeError(w, h.logger, http.StatusNotFound, "Chapter not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, chapter)
}

func (h *ChapterHandler) handleUpdate(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	existing, err := h.storage.GetChapter(r.Context(), id)
	if err != nil {
		serviceError(w, h.logger, err, "get chapter")
		return
	}
	if existing == nil {
		writeError(w, h.logger, http.StatusNotFound, "Chapter not found")
		return
	}

	var chapter story.Chapter
	if !decodeBody(w, r, h.logger, &chapter) {
		return
	}
	chapter.ID = id
	chapter.ProjectID = existing.ProjectID
	// Order changes go through the reorder endpoint.
	chapter.Order = existing.Order
	if err := h.storage.UpdateChapter(r.Context(), &chapter); err != nil {
		serviceError(w, h.logger, err, "update chapter")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, chapter)
}

func (h *ChapterHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.graph.DeleteChapter(r.Context(), id); err != nil {
		serviceError(w, h.logger, err, "delete chapter")
		return
	}
	h.logger.Info("Chapter deleted", "chapter_id", id)
	w.WriteHeader(http.StatusNoContent)
}

type ReorderRequest struct {
	ProjectID uuid.UUID   `json:"projectId,omitempty"`
	ChapterID uuid.UUID   `json:"chapterId,omitempty"`
	ScreenID  uuid.UUID   `json:"screenId,omitempty"`
	IDs       []uuid.UUID `json:"ids"`
}

func (h *ChapterHandler) handleReorder(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}
	if req.ProjectID == uuid.Nil {
		writeError(w, h.logger, http.StatusBadRequest, "projectId is required")
		return
	}
	if err := h.graph.ReorderChapters(r.Context(), req.ProjectID, req.IDs); err != nil {
		serviceError(w, h.logger, err, "reorder chapters")
		return
	}
	chapters, err := h.storage.ListChaptersByProject(r.Context(), req.ProjectID)
	if err != nil {
		serviceError(w, h.logger, err, "list chapters")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, chapters)
}
