package server

import (
	"encoding/json"
	"net/http"

	"land-registry/internal/auth"
	"land-registry/internal/notify"
)

// handleNotifications accepts security events from clients (the session
// layer posts one on every fresh login). The target user is always the
// authenticated caller.
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	claims, err := auth.MustClaims(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var ev notify.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	ev.UserID = claims.Sub
	if ev.Type == "" {
		ev.Type = "security"
	}

	if err := s.notifier.Publish(r.Context(), ev); err != nil {
		s.logger.Printf("notification publish failed: %v", err)
		writeError(w, http.StatusInternalServerError, "could not store notification")
		return
	}
	writeJSONStatus(w, http.StatusCreated, map[string]any{"success": true})
}
