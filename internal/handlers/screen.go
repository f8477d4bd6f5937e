package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/kmills-dev/storyloom/internal/services"
	"github.com/kmills-dev/storyloom/pkg/storage"
	"github.com/kmills-dev/storyloom/pkg/story"
)

type ScreenHandler struct {
	storage storage.Storage
	graph   *services.GraphService
	logger  *slog.Logger
}

func NewScreenHandler(st storage.Storage, graph *services.GraphService, logger *slog.Logger) *ScreenHandler {
	return &ScreenHandler{storage: st, graph: graph, logger: logger}
}

// ServeHTTP routes screen operations.
// POST /v1/screens               - Create screen (appended last, chained)
// GET /v1/screens?chapterId=     - List a chapter's screens in order
// GET /v1/screens/{id}           - Read screen
// PATCH /v1/screens/{id}         - Update screen (text re-sanitized)
// DELETE /v1/screens/{id}        - Delete screen (renumber + heal links)
// POST /v1/screens/reorder       - Apply a full reorder (links re-chained)
func (h *ScreenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/v1/screens/reorder" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.handleReorder(w, r)
		return
	}

	id, rest, ok := pathID(r.URL.Path, "/v1/screens")
	if !ok || rest != "" {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid screen ID format")
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

func (h *ScreenHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var screen story.Screen
	if !decodeBody(w, r, h.logger, &screen) {
		return
	}
	if screen.ChapterID == uuid.Nil || screen.ProjectID == uuid.Nil {
		writeError(w, h.logger, http.StatusBadRequest, "chapterId and projectId are required")
		return
	}
	if err := h.graph.CreateScreen(r.Context(), &screen); err != nil {
		serviceError(w, h.logger, err, "create screen")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, screen)
}

func (h *ScreenHandler) handleList(w http.ResponseWriter, r *http.Request) {
	chapterID, ok := queryID(r, "chapterId")
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "chapterId query parameter is required")
		return
	}
	screens, err := h.storage.ListScreensByChapter(r.Context(), chapterID)
	if err != nil {
		serviceError(w, h.logger, err, "list screens")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, screens)
}

func (h *ScreenHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	screen, err := h.storage.GetScreen(r.Context(), id)
	if err != nil {
		serviceError(w, h.logger, err, "get screen")
		return
	}
	if screen == nil {
		writeError(w, h.logger, http.StatusNotFound, "Screen not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, screen)
}

func (h *ScreenHandler) handleUpdate(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	existing, err := h.storage.GetScreen(r.Context(), id)
	if err != nil {
		serviceError(w, h.logger, err, "get screen")
		return
	}
	if existing == nil {
		writeError(w, h.logger, http.StatusNotFound, "Screen not found")
		return
	}

	var screen story.Screen
	if !decodeBody(w, r, h.logger, &screen) {
		return
	}
	screen.ID = id
	screen.ChapterID = existing.ChapterID
	screen.ProjectID = existing.ProjectID
	screen.Order = existing.Order
	if err := h.graph.UpdateScreen(r.Context(), &screen); err != nil {
		serviceError(w, h.logger, err, "update screen")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, screen)
}

func (h *ScreenHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.graph.DeleteScreen(r.Context(), id); err != nil {
		serviceError(w, h.logger, err, "delete screen")
		return
	}
	h.logger.Info("Screen deleted", "screen_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ScreenHandler) handleReorder(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}
	if req.ChapterID == uuid.Nil {
		writeError(w, h.logger, http.StatusBadRequest, "chapterId is required")
		return
	}
	if err := h.graph.ReorderScreens(r.Context(), req.ChapterID, req.IDs); err != nil {
		serviceError(w, h.logger, err, "reorder screens")
		return
	}
	screens, err := h.storage.ListScreensByChapter(r.Context(), req.ChapterID)
	if err != nil {
		serviceError(w, h.logger, err, "list screens")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, screens)
}
