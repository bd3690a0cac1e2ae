package handlers

import (
	"net/http"

	"github.com/kivosy/aegis/internal/domain"
)

type SessionHandler struct {
	sessionStore domain.SessionStore
}

func NewSessionHandler(ss domain.SessionStore) *SessionHandler {
	return &SessionHandler{sessionStore: ss}
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessionStore.Current(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get session")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Reset closes the current session and starts a fresh one with zeroed
// counters.
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessionStore.Reset(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset session")
		return
	}
	writeJSON(w, http.StatusOK, session)
}
