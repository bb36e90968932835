package handlers

import (
	"net/http"
	"strings"

	"github.com/vidvault/backend/internal/auth"
)

// bearerToken extracts the session token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// sessionFromRequest resolves the caller's session, writing a 401 response
// when the request carries no valid session.
func sessionFromRequest(w http.ResponseWriter, r *http.Request, sessions SessionManager) (auth.Session, bool) {
	ctx := r.Context()

	token := bearerToken(r)
	if token == "" {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return auth.Session{}, false
	}

	session, err := sessions.Lookup(ctx, token)
	if err != nil {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired session"})
		return auth.Session{}, false
	}

	return session, true
}
