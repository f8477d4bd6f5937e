package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/kmills-dev/storyloom/internal/services"
	"github.com/kmills-dev/storyloom/pkg/storage"
	"github.com/kmills-dev/storyloom/pkg/story"
)

type CurrencyHandler struct {
	storage storage.Storage
	graph   *services.GraphService
	logger  *slog.Logger
}

func NewCurrencyHandler(st storage.Storage, graph *services.GraphService, logger *slog.Logger) *CurrencyHandler {
	return &CurrencyHandler{storage: st, graph: graph, logger: logger}
}

// ServeHTTP routes currency operations.
// POST /v1/currencies             - Create currency (keyword normalized)
// GET /v1/currencies?projectId=   - List a project's currencies
// GET /v1/currencies/{id}         - Read currency
// PATCH /v1/currencies/{id}       - Update display name / starting value
// DELETE /v1/currencies/{id}      - Delete (refused while conditions use it)
func (h *CurrencyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, rest, ok := pathID(r.URL.Path, "/v1/currencies")
	if !ok || rest != "" {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid currency ID format")
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

func (h *CurrencyHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var currency story.Currency
	if !decodeBody(w, r, h.logger, &currency) {
		return
	}
	if currency.ProjectID == uuid.Nil {
		writeError(w, h.logger, http.StatusBadRequest, "projectId is required")
		return
	}
	if err := h.graph.CreateCurrency(r.Context(), &currency); err != nil {
		serviceError(w, h.logger, err, "create currency")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, currency)
}

func (h *CurrencyHandler) handleList(w http.ResponseWriter, r *http.Request) {
	projectID, ok := queryID(r, "projectId")
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "projectId query parameter is required")
		return
	}
	currencies, err := h.storage.ListCurrenciesByProject(r.Context(), projectID)
	if err != nil {
		serviceError(w, h.logger, err, "list currencies")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, currencies)
}

func (h *CurrencyHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	currency, err := h.storage.GetCurrency(r.Context(), id)
	if err != nil {
		serviceError(w, h.logger, err, "get currency")
		return
	}
	if currency == nil {
		writeError(w, h.logger, http.StatusNotFound, "Currency not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, currency)
}

func (h *CurrencyHandler) handleUpdate(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	existing, err := h.storage.GetCurrency(r.Context(), id)
	if err != nil {
		serviceError(w, h.logger, err, "get currency")
		return
	}
	if existing == nil {
		writeError(w, h.logger, http.StatusNotFound, "Currency not found")
		return
	}

	var currency story.Currency
	if !decodeBody(w, r, h.logger, &currency) {
		return
	}
	currency.ID = id
	currency.ProjectID = existing.ProjectID
	// The keyword is the stable identifier conditions reference; renames
	// would orphan them, so it is immutable after creation.
	currency.KeyWord = existing.KeyWord
	if currency.DisplayName == "" {
		currency.DisplayName = existing.DisplayName
	}
	if err := h.storage.UpdateCurrency(r.Context(), &currency); err != nil {
		serviceError(w, h.logger, err, "update currency")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, currency)
}

func (h *CurrencyHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.graph.DeleteCurrency(r.Context(), id); err != nil {
		serviceError(w, h.logger, err, "delete currency")
		return
	}
	h.logger.Info("Currency deleted", "currency_id", id)
	w.WriteHeader(http.StatusNoContent)
}
