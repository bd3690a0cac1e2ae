package handlers

import (
	"net/http"

	"github.com/kivosy/aegis/internal/domain"
)

type QuarantineHandler struct {
	quarantineStore domain.QuarantineStore
}

func NewQuarantineHandler(qs domain.QuarantineStore) *QuarantineHandler {
	return &QuarantineHandler{quarantineStore: qs}
}

type quarantineListResponse struct {
	Claims []domain.QuarantinedClaim `json:"claims"`
	Count  int                       `json:"count"`
}

// List returns quarantined claims, optionally filtered by ?status=.
func (h *QuarantineHandler) List(w http.ResponseWriter, r *http.Request) {
	status := domain.QuarantineStatus(r.URL.Query().Get("status"))
	switch status {
	case "", domain.QuarantinePending, domain.QuarantineRejected:
	default:
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	claims, err := h.quarantineStore.List(r.Context(), status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list quarantined claims")
		return
	}
	if claims == nil {
		claims = []domain.QuarantinedClaim{}
	}

	writeJSON(w, http.StatusOK, quarantineListResponse{Claims: claims, Count: len(claims)})
}
