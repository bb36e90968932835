package handlers

import "net/http"

// Health reports process liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
