package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/kmills-dev/storyloom/internal/services"
	"github.com/kmills-dev/storyloom/pkg/storage"
	"github.com/kmills-dev/storyloom/pkg/story"
)

type ReferenceHandler struct {
	storage storage.Storage
	graph   *services.GraphService
	logger  *slog.Logger
}

func NewReferenceHandler(st storage.Storage, graph *services.GraphService, logger *slog.Logger) *ReferenceHandler {
	return &ReferenceHandler{storage: st, graph: graph, logger: logger}
}

// ServeHTTP routes reference operations.
// POST /v1/references              - Create reference (text sanitized)
// GET /v1/references?projectId=    - List a project's references
// GET /v1/references/{id}          - Read reference
// PATCH /v1/references/{id}        - Update reference
// DELETE /v1/references/{id}       - Delete reference
// POST /v1/references/{id}/check   - Evaluate accessibility against state
func (h *ReferenceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, rest, ok := pathID(r.URL.Path, "/v1/references")
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid reference ID format")
		return
	}

	switch {
	case rest == "check" && r.Method == http.MethodPost:
		h.handleCheck(w, r, id)
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

func (h *ReferenceHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var ref story.Reference
	if !decodeBody(w, r, h.logger, &ref) {
		return
	}
	if ref.ProjectID == uuid.Nil {
		writeError(w, h.logger, http.StatusBadRequest, "projectId is required")
		return
	}
	if err := h.graph.CreateReference(r.Context(), &ref); err != nil {
		serviceError(w, h.logger, err, "create reference")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, ref)
}

func (h *ReferenceHandler) handleList(w http.ResponseWriter, r *http.Request) {
	projectID, ok := queryID(r, "projectId")
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "projectId query parameter is required")
		return
	}
	refs, err := h.storage.ListReferencesByProject(r.Context(), projectID)
	if err != nil {
		serviceError(w, h.logger, err, "list references")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, refs)
}

func (h *ReferenceHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	ref, err := h.storage.GetReference(r.Context(), id)
	if err != nil {
		serviceError(w, h.logger, err, "get reference")
		return
	}
	if ref == nil {
		writeError(w, h.logger, http.StatusNotFound, "Reference not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, ref)
}

func (h *ReferenceHandler) handleUpdate(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	existing, err := h.storage.GetReference(r.Context(), id)
	if err != nil {
		serviceError(w, h.logger, err, "get reference")
		return
	}
	if existing == nil {
		writeError(w, h.logger, http.StatusNotFound, "Reference not found")
		return
	}

	var ref story.Reference
	if !decodeBody(w, r, h.logger, &ref) {
		return
	}
	ref.ID = id
	ref.ProjectID = existing.ProjectID
	if err := h.graph.UpdateReference(r.Context(), &ref); err != nil {
		serviceError(w, h.logger, err, "update reference")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, ref)
}

func (h *ReferenceHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.storage.DeleteReference(r.Context(), id); err != nil {
		serviceError(w, h.logger, err, "delete reference")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckRequest carries a hypothetical play state to evaluate a reference
// against, without opening a playtest session.
type CheckRequest struct {
	Currencies map[string]float64 `json:"currencies"`
	Items      map[string]bool    `json:"items"`
}

type CheckResponse struct {
	Accessible bool `json:"accessible"`
}

func (h *ReferenceHandler) handleCheck(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if id == uuid.Nil {
		writeError(w, h.logger, http.StatusBadRequest, "Reference ID is required")
		return
	}
	ref, err := h.storage.GetReference(r.Context(), id)
	if err != nil {
		serviceError(w, h.logger, err, "get reference")
		return
	}
	if ref == nil {
		writeError(w, h.logger, http.StatusNotFound, "Reference not found")
		return
	}

	var req CheckRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	view := checkView{currencies: req.Currencies, items: req.Items}
	writeJSON(w, h.logger, http.StatusOK, CheckResponse{Accessible: ref.Accessible(view)})
}

// checkView adapts the posted hypothetical state to conditions.StateView.
type checkView struct {
	currencies map[string]float64
	items      map[string]bool
}

func (v checkView) CurrencyValue(keyWord string) (float64, bool) {
	val, ok := v.currencies[keyWord]
	return val, ok
}

func (v checkView) HasItem(keyWord string) bool { return v.items[keyWord] }
