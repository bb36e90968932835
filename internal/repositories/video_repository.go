package repositories

import (
	"context"

	"github.com/vidvault/backend/internal/models"
)

// VideoRepository defines the data access contract for catalog videos.
// Listing methods return rows joined with the owner's username, newest first.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) (int64, error)
	FindByVideoID(ctx context.Context, videoID string) (models.Video, error)
	List(ctx context.Context, search string) ([]models.Video, error)
	ListRelated(ctx context.Context, excludeVideoID string, limit int) ([]models.Video, error)
	ListByOwner(ctx context.Context, userID int64) ([]models.Video, error)
	ListMissingThumbnails(ctx context.Context) ([]models.Video, error)
	SetThumbnail(ctx context.Context, videoID, thumbnail string) error
	IncrementViews(ctx context.Context, videoID string) error
	Delete(ctx context.Context, videoID string) error
}
