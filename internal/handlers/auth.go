package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vidvault/backend/internal/auth"
	"github.com/vidvault/backend/internal/logging"
	"github.com/vidvault/backend/internal/models"
	"github.com/vidvault/backend/internal/repositories"
)

// AuthHandler implements user registration, login and logout.
type AuthHandler struct {
	Users    UserStore
	Sessions SessionManager
	Limiter  RateLimiter
	NowFunc  func() time.Time
}

// Register handles POST /api/v1/auth/register requests.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "register") {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid register payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		logger.Warn("register missing fields", "email", req.Email)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username, email and password are required"})
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		logger.Warn("register invalid email", "email", req.Email, "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid email address"})
		return
	}

	if len(req.Password) < 6 {
		logger.Warn("register password too short", "email", req.Email)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "password must be at least 6 characters"})
		return
	}

	// Pre-insert existence check as the UI expects; the unique index on
	// users.email closes the race two concurrent registrations would win.
	if _, err := h.Users.FindByEmail(ctx, req.Email); err == nil {
		logger.Warn("register existing account", "email", req.Email)
		respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": "email already registered"})
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("register user lookup failed", "error", err, "email", req.Email)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to verify existing accounts"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("register failed to hash password", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to secure password"})
		return
	}

	user := models.User{
		Username:  req.Username,
		Email:     req.Email,
		Password:  string(hashed),
		CreatedAt: h.now(),
	}

	id, err := h.Users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			logger.Warn("register conflict", "email", req.Email)
			respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": "email already registered"})
			return
		}
		logger.Error("register failed to create user", "error", err, "email", req.Email)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to create account"})
		return
	}
	user.ID = id

	session, err := h.Sessions.Issue(ctx, user)
	if err != nil {
		logger.Error("register failed to issue session", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to create session"})
		return
	}

	respondJSON(ctx, w, http.StatusCreated, authResponse{Session: sessionPayload(session)})
}

// Login handles POST /api/v1/auth/login requests.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		logger.Warn("login missing credentials", "email", req.Email)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "email and password are required"})
		return
	}

	user, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		logger.Warn("login user lookup failed", "email", req.Email, "error", err)
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	session, err := h.Sessions.Issue(ctx, user)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to create session"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, authResponse{Session: sessionPayload(session)})
}

// Logout handles POST /api/v1/auth/logout requests.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if token := bearerToken(r); token != "" {
		h.Sessions.Revoke(r.Context(), token)
	}

	w.WriteHeader(http.StatusNoContent)
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"userId"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type authResponse struct {
	Session sessionResponse `json:"session"`
}

func sessionPayload(session auth.Session) sessionResponse {
	return sessionResponse{
		Token:     session.Token,
		UserID:    session.UserID,
		Username:  session.Username,
		Role:      session.Role,
		ExpiresAt: session.ExpiresAt,
	}
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}
