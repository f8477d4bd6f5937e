package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kmills-dev/storyloom/internal/services"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// serviceError maps service failures to HTTP status codes. Validation
// rejections are the caller's fault; anything else is a server error.
func serviceError(w http.ResponseWriter, logger *slog.Logger, err error, op string) {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		status := http.StatusBadRequest
		if strings.Contains(ve.Reason, "not found") {
			status = http.StatusNotFound
		}
		writeError(w, logger, status, ve.Reason)
		return
	}
	logger.Error("Request failed", "op", op, "error", err)
	writeError(w, logger, http.StatusInternalServerError, "Internal server error")
}

// pathID extracts a trailing uuid from a path under the given prefix.
// Returns uuid.Nil with ok=true for the bare collection path, and ok=false
// for a malformed id.
func pathID(path, prefix string) (id uuid.UUID, rest string, ok bool) {
	trimmed := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if trimmed == "" {
		return uuid.Nil, "", true
	}
	idStr := trimmed
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		idStr, rest = trimmed[:i], trimmed[i+1:]
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, "", false
	}
	return id, rest, true
}

// queryID parses a uuid query parameter, reporting whether it was present
// and well formed.
func queryID(r *http.Request, name string) (uuid.UUID, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, logger, http.StatusBadRequest, "Invalid JSON in request body")
		return false
	}
	return true
}
