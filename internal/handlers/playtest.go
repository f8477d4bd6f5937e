package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/kmills-dev/storyloom/internal/services"
	"github.com/kmills-dev/storyloom/pkg/playback"
	"github.com/kmills-dev/storyloom/pkg/state"
	"github.com/kmills-dev/storyloom/pkg/story"
)

type PlaytestHandler struct {
	sessions *services.SessionManager
	logger   *slog.Logger
}

func NewPlaytestHandler(sessions *services.SessionManager, logger *slog.Logger) *PlaytestHandler {
	return &PlaytestHandler{sessions: sessions, logger: logger}
}

// ServeHTTP routes playtest operations.
// POST /v1/playtest                - Create a session, seed state, start walk
// GET /v1/playtest/{id}            - Current screen, visible replies, readout
// POST /v1/playtest/{id}/choose    - Choose a visible reply
// DELETE /v1/playtest/{id}         - Discard the session
//
// Sessions live in memory only; they do not survive a restart and are
// swept after the idle TTL.
func (h *PlaytestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, rest, ok := pathID(r.URL.Path, "/v1/playtest")
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	switch {
	case rest == "choose" && r.Method == http.MethodPost:
		h.handleChoose(w, r, id)
	case rest != "":
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	case r.Method == http.MethodPost && id == uuid.Nil:
		h.handleCreate(w, r)
	case r.Method == http.MethodGet && id != uuid.Nil:
		h.handleRead(w, r, id)
	case r.Method == http.MethodDelete && id != uuid.Nil:
		h.handleDelete(w, r, id)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// CreatePlaytestRequest seeds and starts a walkthrough in one call.
// Currencies and Items override starting values before the walk begins.
type CreatePlaytestRequest struct {
	ProjectID     uuid.UUID          `json:"projectId"`
	StartScreenID string             `json:"startScreenId"`
	Currencies    map[string]float64 `json:"currencies,omitempty"`
	Items         map[string]bool    `json:"items,omitempty"`
}

// PlaytestResponse is the full view of a session: where the walk is, what
// can be chosen, and the live currency readout.
type PlaytestResponse struct {
	SessionID uuid.UUID            `json:"sessionId"`
	Phase     playback.Phase       `json:"phase"`
	Screen    *story.Screen        `json:"screen,omitempty"`
	Replies   []story.Reply        `json:"replies"`
	Readout   []state.UserCurrency `json:"readout"`
	Items     map[string]bool      `json:"items,omitempty"`
}

func (h *PlaytestHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreatePlaytestRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}
	if req.ProjectID == uuid.Nil {
		writeError(w, h.logger, http.StatusBadRequest, "projectId is required")
		return
	}
	if req.StartScreenID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "startScreenId is required")
		return
	}

	session, err := h.sessions.CreateSession(r.Context(), req.ProjectID)
	if err != nil {
		serviceError(w, h.logger, err, "create playtest session")
		return
	}
	for kw, v := range req.Currencies {
		if err := session.SeedCurrency(kw, v); err != nil {
			h.sessions.EndSession(session.ID)
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
	}
	for kw, possessed := range req.Items {
		if err := session.SeedItem(kw, possessed); err != nil {
			h.sessions.EndSession(session.ID)
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := session.Start(r.Context(), req.StartScreenID); err != nil {
		h.sessions.EndSession(session.ID)
		if errors.Is(err, playback.ErrBrokenLink) {
			writeError(w, h.logger, http.StatusNotFound, "Start screen not found")
			return
		}
		serviceError(w, h.logger, err, "start playtest session")
		return
	}

	h.logger.Info("Playtest session started", "session_id", session.ID, "project_id", req.ProjectID)
	h.respondSession(w, r, session, http.StatusCreated)
}

func (h *PlaytestHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	session, ok := h.sessions.Session(id)
	if !ok {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}
	h.respondSession(w, r, session, http.StatusOK)
}

type ChooseRequest struct {
	ReplyID uuid.UUID `json:"replyId"`
}

func (h *PlaytestHandler) handleChoose(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if id == uuid.Nil {
		writeError(w, h.logger, http.StatusBadRequest, "Session ID is required")
		return
	}
	session, ok := h.sessions.Session(id)
	if !ok {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}

	var req ChooseRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	if err := session.Choose(r.Context(), req.ReplyID); err != nil {
		switch {
		case errors.Is(err, playback.ErrBrokenLink):
			// The step halts but the session survives: effects already
			// applied are visible in the readout.
			writeError(w, h.logger, http.StatusUnprocessableEntity, "broken link: "+err.Error())
		case errors.Is(err, playback.ErrReplyNotVisible):
			writeError(w, h.logger, http.StatusConflict, "Reply is not currently visible")
		case errors.Is(err, playback.ErrEnded):
			writeError(w, h.logger, http.StatusConflict, "Session has ended")
		case errors.Is(err, playback.ErrNotStarted):
			writeError(w, h.logger, http.StatusConflict, "Session has not started")
		default:
			serviceError(w, h.logger, err, "choose reply")
		}
		return
	}
	h.respondSession(w, r, session, http.StatusOK)
}

func (h *PlaytestHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	h.sessions.EndSession(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *PlaytestHandler) respondSession(w http.ResponseWriter, r *http.Request, session *playback.Session, status int) {
	replies, err := session.VisibleReplies(r.Context())
	if err != nil && !errors.Is(err, playback.ErrNotStarted) {
		serviceError(w, h.logger, err, "compute visible replies")
		return
	}
	if replies == nil {
		replies = []story.Reply{}
	}
	writeJSON(w, h.logger, status, PlaytestResponse{
		SessionID: session.ID,
		Phase:     session.Phase(),
		Screen:    session.Screen(),
		Replies:   replies,
		Readout:   session.State().Readout(),
		Items:     session.State().Items(),
	})
}
