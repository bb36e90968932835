package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/vidvault/backend/internal/catalog"
	"github.com/vidvault/backend/internal/logging"
	"github.com/vidvault/backend/internal/repositories"
	"github.com/vidvault/backend/internal/upload"
)

// VideoHandler provides the catalog and upload endpoints.
type VideoHandler struct {
	Catalog  CatalogViews
	Uploader VideoUploader
	Videos   VideoFinder
	Admin    AdminConsole
	Sessions SessionManager
	Limiter  RateLimiter
}

// Collection handles /api/v1/videos: GET lists (optionally searching via the
// q query parameter), POST uploads a new video.
func (h VideoHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.upload(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Resource handles /api/v1/videos/{videoID}: GET returns the watch payload,
// DELETE removes the video for its owner or an admin.
func (h VideoHandler) Resource(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.watch(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Related handles GET /api/v1/videos/{videoID}/related.
func (h VideoHandler) Related(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	entries, err := h.Catalog.Related(ctx, r.PathValue("videoID"))
	if err != nil {
		logging.FromContext(ctx).Error("list related videos", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load related videos"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, videoListResponse{Videos: videoPayloads(entries)})
}

// Mine handles GET /api/v1/users/me/videos, the dashboard listing.
func (h VideoHandler) Mine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	session, ok := sessionFromRequest(w, r, h.Sessions)
	if !ok {
		return
	}

	entries, err := h.Catalog.ListByOwner(ctx, session.UserID)
	if err != nil {
		logging.FromContext(ctx).Error("list videos by owner", "userId", session.UserID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load your videos"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, videoListResponse{Videos: videoPayloads(entries)})
}

func (h VideoHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := h.Catalog.List(ctx, r.URL.Query().Get("q"))
	if err != nil {
		logging.FromContext(ctx).Error("list videos", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load videos"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, videoListResponse{Videos: videoPayloads(entries)})
}

func (h VideoHandler) watch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := h.Catalog.Watch(ctx, r.PathValue("videoID"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logging.FromContext(ctx).Error("load watch page", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load video"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, watchResponse{
		Video:   videoPayload(page.Entry),
		Related: videoPayloads(page.Related),
	})
}

func (h VideoHandler) upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	session, ok := sessionFromRequest(w, r, h.Sessions)
	if !ok {
		return
	}

	if !allowRequest(h.Limiter, r, "upload") {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	// Slack above the ceiling so an oversized file reaches the pipeline's
	// validation instead of dying as a transport error.
	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxFileSize+(10<<20))

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logger.Warn("invalid multipart form", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid form data"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		logger.Warn("missing file field", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "a video file is required"})
		return
	}
	defer file.Close()

	progress := func(percent int) {
		if percent%25 == 0 {
			logger.Debug("upload progress", "percent", percent)
		}
	}

	videoID, err := h.Uploader.Upload(ctx, upload.Request{
		Filename:    header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		OwnerID:     session.UserID,
		Body:        file,
		Progress:    progress,
	})
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrFileTooLarge),
			errors.Is(err, upload.ErrUnsupportedType),
			errors.Is(err, upload.ErrMissingTitle),
			errors.Is(err, upload.ErrTitleTooLong),
			errors.Is(err, upload.ErrDescriptionTooLong):
			logger.Warn("upload rejected", "error", err)
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			logger.Error("upload failed", "error", err, "userId", session.UserID)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "upload failed"})
		}
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]string{"videoId": videoID})
}

func (h VideoHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	session, ok := sessionFromRequest(w, r, h.Sessions)
	if !ok {
		return
	}

	videoID := r.PathValue("videoID")

	video, err := h.Videos.FindByVideoID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logger.Error("lookup video for delete", "videoId", videoID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to delete video"})
		return
	}

	if video.UserID != session.UserID && !session.IsAdmin() {
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "not your video"})
		return
	}

	if err := h.Admin.DeleteVideo(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logger.Error("delete video", "videoId", videoID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to delete video"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type videoResponse struct {
	VideoID      string    `json:"videoId"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Username     string    `json:"username"`
	Views        int64     `json:"views"`
	CreatedAt    time.Time `json:"createdAt"`
	PlaybackURL  string    `json:"playbackUrl"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
}

type videoListResponse struct {
	Videos []videoResponse `json:"videos"`
}

type watchResponse struct {
	Video   videoResponse   `json:"video"`
	Related []videoResponse `json:"related"`
}

func videoPayload(entry catalog.Entry) videoResponse {
	return videoResponse{
		VideoID:      entry.Video.VideoID,
		Title:        entry.Video.Title,
		Description:  entry.Video.Description,
		Username:     entry.Video.Username,
		Views:        entry.Video.Views,
		CreatedAt:    entry.Video.CreatedAt,
		PlaybackURL:  entry.PlaybackURL,
		ThumbnailURL: entry.ThumbnailURL,
	}
}

func videoPayloads(entries []catalog.Entry) []videoResponse {
	payloads := make([]videoResponse, 0, len(entries))
	for _, entry := range entries {
		payloads = append(payloads, videoPayload(entry))
	}
	return payloads
}
