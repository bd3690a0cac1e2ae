package handlers

import (
	"net/http"
	"strconv"

	"github.com/kivosy/aegis/internal/domain"
)

type RecordHandler struct {
	recordStore domain.RecordStore
}

func NewRecordHandler(rs domain.RecordStore) *RecordHandler {
	return &RecordHandler{recordStore: rs}
}

type recordListResponse struct {
	Records []domain.Record `json:"records"`
	Count   int             `json:"count"`
}

// List returns recent turn records, optionally filtered by ?channel=.
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	if channel != "" && !domain.ValidChannel(channel) {
		writeError(w, http.StatusBadRequest, "unknown channel")
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	records, err := h.recordStore.ListRecent(r.Context(), domain.Channel(channel), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list records")
		return
	}
	if records == nil {
		records = []domain.Record{}
	}

	writeJSON(w, http.StatusOK, recordListResponse{Records: records, Count: len(records)})
}
