package handlers

import (
	"net/http"
	"strconv"

	"github.com/kivosy/aegis/internal/domain"
)

type AuditHandler struct {
	auditStore domain.AuditStore
}

func NewAuditHandler(as domain.AuditStore) *AuditHandler {
	return &AuditHandler{auditStore: as}
}

type auditListResponse struct {
	Entries []domain.AuditEntry `json:"entries"`
	Count   int                 `json:"count"`
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	entries, err := h.auditStore.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}

	writeJSON(w, http.StatusOK, auditListResponse{Entries: entries, Count: len(entries)})
}
