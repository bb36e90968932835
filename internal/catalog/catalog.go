package catalog

import (
	"context"
	"fmt"

	"github.com/vidvault/backend/internal/logging"
	"github.com/vidvault/backend/internal/models"
)

// RelatedLimit caps the related-videos rail on the watch page.
const RelatedLimit = 8

// VideoFinder captures the read operations the catalog views need.
type VideoFinder interface {
	FindByVideoID(ctx context.Context, videoID string) (models.Video, error)
	List(ctx context.Context, search string) ([]models.Video, error)
	ListRelated(ctx context.Context, excludeVideoID string, limit int) ([]models.Video, error)
	ListByOwner(ctx context.Context, userID int64) ([]models.Video, error)
	IncrementViews(ctx context.Context, videoID string) error
}

// URLResolver derives public locations for stored object keys.
type URLResolver interface {
	PublicURL(key string) string
}

// Entry is a catalog video decorated with browser-reachable media locations.
type Entry struct {
	Video        models.Video
	PlaybackURL  string
	ThumbnailURL string
}

// WatchPage is the payload for the per-video watch view.
type WatchPage struct {
	Entry
	Related []Entry
}

// Service serves the list/search/watch/dashboard views over the catalog store.
type Service struct {
	Videos VideoFinder
	URLs   URLResolver
}

// NewService constructs the catalog view service.
func NewService(videos VideoFinder, urls URLResolver) *Service {
	return &Service{Videos: videos, URLs: urls}
}

// List returns all videos newest first, filtered by the optional search term
// (case-insensitive substring over title or description).
func (s *Service) List(ctx context.Context, search string) ([]Entry, error) {
	videos, err := s.Videos.List(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return s.decorate(videos), nil
}

// ListByOwner returns the dashboard listing for one user.
func (s *Service) ListByOwner(ctx context.Context, userID int64) ([]Entry, error) {
	videos, err := s.Videos.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list videos by owner: %w", err)
	}
	return s.decorate(videos), nil
}

// Watch fetches a video for playback. Each successful fetch advances the view
// counter exactly once through the store's atomic increment; a failed
// increment is logged and the page is still served.
func (s *Service) Watch(ctx context.Context, videoID string) (WatchPage, error) {
	video, err := s.Videos.FindByVideoID(ctx, videoID)
	if err != nil {
		return WatchPage{}, err
	}

	if err := s.Videos.IncrementViews(ctx, videoID); err != nil {
		logging.FromContext(ctx).Warn("increment video views", "videoId", videoID, "error", err)
	} else {
		video.Views++
	}

	related, err := s.Videos.ListRelated(ctx, videoID, RelatedLimit)
	if err != nil {
		return WatchPage{}, fmt.Errorf("list related videos: %w", err)
	}

	return WatchPage{
		Entry:   s.entry(video),
		Related: s.decorate(related),
	}, nil
}

// Related returns the newest videos excluding the one being watched.
func (s *Service) Related(ctx context.Context, excludeVideoID string) ([]Entry, error) {
	videos, err := s.Videos.ListRelated(ctx, excludeVideoID, RelatedLimit)
	if err != nil {
		return nil, fmt.Errorf("list related videos: %w", err)
	}
	return s.decorate(videos), nil
}

func (s *Service) decorate(videos []models.Video) []Entry {
	entries := make([]Entry, 0, len(videos))
	for _, video := range videos {
		entries = append(entries, s.entry(video))
	}
	return entries
}

func (s *Service) entry(video models.Video) Entry {
	entry := Entry{Video: video}
	if s.URLs != nil {
		entry.PlaybackURL = s.URLs.PublicURL(video.Filename)
		if video.Thumbnail != "" {
			entry.ThumbnailURL = s.URLs.PublicURL(video.Thumbnail)
		}
	}
	return entry
}
