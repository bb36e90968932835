package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/vidvault/backend/internal/admin"
	"github.com/vidvault/backend/internal/auth"
	"github.com/vidvault/backend/internal/logging"
	"github.com/vidvault/backend/internal/models"
	"github.com/vidvault/backend/internal/repositories"
)

// AdminHandler serves the privileged management endpoints.
type AdminHandler struct {
	Console  AdminConsole
	Sessions SessionManager
}

// Overview handles GET /api/v1/admin/overview.
func (h AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	overview, err := h.Console.Overview(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("load admin overview", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load overview"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, overviewPayload(overview))
}

// DeleteUser handles DELETE /api/v1/admin/users/{userID}.
func (h AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	session, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	userID, err := strconv.ParseInt(r.PathValue("userID"), 10, 64)
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}

	if err := h.Console.DeleteUser(ctx, userID); err != nil {
		switch {
		case errors.Is(err, admin.ErrProtectedAccount):
			respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "this account cannot be deleted"})
		case errors.Is(err, repositories.ErrNotFound):
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "user not found"})
		default:
			logging.FromContext(ctx).Error("delete user", "userId", userID, "adminId", session.UserID, "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to delete user"})
		}
		return
	}

	logging.FromContext(ctx).Info("user deleted", "userId", userID, "adminId", session.UserID)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteVideo handles DELETE /api/v1/admin/videos/{videoID}.
func (h AdminHandler) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	session, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	videoID := r.PathValue("videoID")

	if err := h.Console.DeleteVideo(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logging.FromContext(ctx).Error("delete video", "videoId", videoID, "adminId", session.UserID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to delete video"})
		return
	}

	logging.FromContext(ctx).Info("video deleted", "videoId", videoID, "adminId", session.UserID)
	w.WriteHeader(http.StatusNoContent)
}

// requireAdmin resolves the caller's session and rejects non-admin callers.
func (h AdminHandler) requireAdmin(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	session, ok := sessionFromRequest(w, r, h.Sessions)
	if !ok {
		return auth.Session{}, false
	}

	if !session.IsAdmin() {
		respondJSON(r.Context(), w, http.StatusForbidden, map[string]string{"error": "admin access required"})
		return auth.Session{}, false
	}

	return session, true
}

type adminUserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type adminVideoResponse struct {
	VideoID   string    `json:"videoId"`
	Title     string    `json:"title"`
	Username  string    `json:"username"`
	UserID    int64     `json:"userId"`
	Views     int64     `json:"views"`
	CreatedAt time.Time `json:"createdAt"`
}

type adminStatsResponse struct {
	UserCount  int   `json:"userCount"`
	VideoCount int   `json:"videoCount"`
	TotalViews int64 `json:"totalViews"`
}

type adminOverviewResponse struct {
	Users  []adminUserResponse  `json:"users"`
	Videos []adminVideoResponse `json:"videos"`
	Stats  adminStatsResponse   `json:"stats"`
}

// overviewPayload shapes the overview for the wire; password hashes never
// leave the server.
func overviewPayload(overview admin.Overview) adminOverviewResponse {
	payload := adminOverviewResponse{
		Users:  make([]adminUserResponse, 0, len(overview.Users)),
		Videos: make([]adminVideoResponse, 0, len(overview.Videos)),
		Stats: adminStatsResponse{
			UserCount:  overview.Stats.UserCount,
			VideoCount: overview.Stats.VideoCount,
			TotalViews: overview.Stats.TotalViews,
		},
	}

	for _, user := range overview.Users {
		payload.Users = append(payload.Users, adminUserPayload(user))
	}
	for _, video := range overview.Videos {
		payload.Videos = append(payload.Videos, adminVideoPayload(video))
	}

	return payload
}

func adminUserPayload(user models.User) adminUserResponse {
	return adminUserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

func adminVideoPayload(video models.Video) adminVideoResponse {
	return adminVideoResponse{
		VideoID:   video.VideoID,
		Title:     video.Title,
		Username:  video.Username,
		UserID:    video.UserID,
		Views:     video.Views,
		CreatedAt: video.CreatedAt,
	}
}
