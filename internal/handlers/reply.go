package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/kmills-dev/storyloom/internal/services"
	"github.com/kmills-dev/storyloom/pkg/conditions"
	"github.com/kmills-dev/storyloom/pkg/storage"
	"github.com/kmills-dev/storyloom/pkg/story"
)

// ReplyView is a reply as the authoring UI reads it: the stored fields plus
// rendered rule summary lines for each requirement and effect.
type ReplyView struct {
	story.Reply
	Rules []string `json:"rules"`
}

type ReplyHandler struct {
	storage storage.Storage
	graph   *services.GraphService
	logger  *slog.Logger
}

func NewReplyHandler(st storage.Storage, graph *services.GraphService, logger *slog.Logger) *ReplyHandler {
	return &ReplyHandler{storage: st, graph: graph, logger: logger}
}

// ServeHTTP routes reply operations.
// POST /v1/replies              - Create reply (appended last)
// GET /v1/replies?screenId=     - List a screen's replies in order
// GET /v1/replies/{id}          - Read reply
// PATCH /v1/replies/{id}        - Update reply
// DELETE /v1/replies/{id}       - Delete reply (siblings renumbered)
// POST /v1/replies/reorder      - Apply a full reorder
func (h *ReplyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/v1/replies/reorder" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.handleReorder(w, r)
		return
	}

	id, rest, ok := pathID(r.URL.Path, "/v1/replies")
	if !ok || rest != "" {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid reply ID format")
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

func (h *ReplyHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var reply story.Reply
	if !decodeBody(w, r, h.logger, &reply) {
		return
	}
	if reply.ScreenID == uuid.Nil {
		writeError(w, h.logger, http.StatusBadRequest, "screenId is required")
		return
	}
	if err := h.graph.CreateReply(r.Context(), &reply); err != nil {
		serviceError(w, h.logger, err, "create reply")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, reply)
}

func (h *ReplyHandler) handleList(w http.ResponseWriter, r *http.Request) {
	screenID, ok := queryID(r, "screenId")
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "screenId query parameter is required")
		return
	}
	replies, err := h.storage.ListRepliesByScreen(r.Context(), screenID)
	if err != nil {
		serviceError(w, h.logger, err, "list replies")
		return
	}
	names := h.displayNames(r.Context(), screenID)
	views := make([]ReplyView, 0, len(replies))
	for i := range replies {
		views = append(views, replyView(replies[i], names))
	}
	writeJSON(w, h.logger, http.StatusOK, views)
}

func (h *ReplyHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	reply, err := h.storage.GetReply(r.Context(), id)
	if err != nil {
		serviceError(w, h.logger, err, "get reply")
		return
	}
	if reply == nil {
		writeError(w, h.logger, http.StatusNotFound, "Reply not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, replyView(*reply, h.displayNames(r.Context(), reply.ScreenID)))
}

// displayNames maps the project's currency keywords to player-facing names
// for rule rendering. Lookup failures degrade to raw keywords.
func (h *ReplyHandler) displayNames(ctx context.Context, screenID uuid.UUID) map[string]string {
	screen, err := h.storage.GetScreen(ctx, screenID)
	if err != nil || screen == nil {
		return nil
	}
	currencies, err := h.storage.ListCurrenciesByProject(ctx, screen.ProjectID)
	if err != nil {
		return nil
	}
	names := make(map[string]string, len(currencies))
	for _, c := range currencies {
		names[c.KeyWord] = c.DisplayName
	}
	return names
}

func replyView(rep story.Reply, names map[string]string) ReplyView {
	rules := make([]string, 0, len(rep.Requirements)+len(rep.Effects))
	for _, c := range rep.Requirements {
		rules = append(rules, conditions.Describe(c, names))
	}
	for _, c := range rep.Effects {
		rules = append(rules, conditions.Describe(c, names))
	}
	return ReplyView{Reply: rep, Rules: rules}
}

func (h *ReplyHandler) handleUpdate(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	existing, err := h.storage.GetReply(r.Context(), id)
	if err != nil {
		serviceError(w, h.logger, err, "get reply")
		return
	}
	if existing == nil {
		writeError(w, h.logger, http.StatusNotFound, "Reply not found")
		return
	}

	var reply story.Reply
	if !decodeBody(w, r, h.logger, &reply) {
		return
	}
	reply.ID = id
	reply.ScreenID = existing.ScreenID
	reply.Order = existing.Order
	if err := h.graph.UpdateReply(r.Context(), &reply); err != nil {
		serviceError(w, h.logger, err, "update reply")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, reply)
}

func (h *ReplyHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.graph.DeleteReply(r.Context(), id); err != nil {
		serviceError(w, h.logger, err, "delete reply")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReplyHandler) handleReorder(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}
	if req.ScreenID == uuid.Nil {
		writeError(w, h.logger, http.StatusBadRequest, "screenId is required")
		return
	}
	if err := h.graph.ReorderReplies(r.Context(), req.ScreenID, req.IDs); err != nil {
		serviceError(w, h.logger, err, "reorder replies")
		return
	}
	replies, err := h.storage.ListRepliesByScreen(r.Context(), req.ScreenID)
	if err != nil {
		serviceError(w, h.logger, err, "list replies")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, replies)
}
