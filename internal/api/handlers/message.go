package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kivosy/aegis/internal/domain"
	"github.com/kivosy/aegis/internal/service"
)

type MessageHandler struct {
	pipeline *service.PipelineService
}

func NewMessageHandler(pipeline *service.PipelineService) *MessageHandler {
	return &MessageHandler{pipeline: pipeline}
}

type messageRequest struct {
	Content string `json:"content"`
	// External marks relayed content the sender did not author (forwarded
	// messages, webhook payloads); it forces quarantine wrapping.
	External bool `json:"external,omitempty"`
}

// Process runs one inbound channel message through the full pipeline.
// The channel comes from the URL so clients cannot spoof it in the body.
func (h *MessageHandler) Process(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")
	if !domain.ValidChannel(channel) {
		writeError(w, http.StatusBadRequest, "unknown channel")
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.pipeline.ProcessMessage(r.Context(), domain.Channel(channel), req.Content, req.External)
	if err != nil {
		if errors.Is(err, service.ErrContentEmpty) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
