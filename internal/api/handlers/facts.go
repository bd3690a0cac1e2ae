package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kivosy/aegis/internal/domain"
	"github.com/kivosy/aegis/internal/store"
)

type FactHandler struct {
	factStore domain.FactStore
}

func NewFactHandler(fs domain.FactStore) *FactHandler {
	return &FactHandler{factStore: fs}
}

type factListResponse struct {
	Facts []domain.Fact `json:"facts"`
	Count int           `json:"count"`
}

func (h *FactHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	var facts []domain.Fact
	var err error
	if limit > 0 {
		facts, err = h.factStore.ListRecent(r.Context(), limit)
	} else {
		facts, err = h.factStore.List(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list facts")
		return
	}
	if facts == nil {
		facts = []domain.Fact{}
	}

	writeJSON(w, http.StatusOK, factListResponse{Facts: facts, Count: len(facts)})
}

func (h *FactHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fact id")
		return
	}

	fact, err := h.factStore.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "fact not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get fact")
		return
	}

	writeJSON(w, http.StatusOK, fact)
}

// Delete removes a fact. This is the administrative escape hatch; the
// pipeline itself never deletes facts.
func (h *FactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fact id")
		return
	}

	if err := h.factStore.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "fact not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete fact")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
