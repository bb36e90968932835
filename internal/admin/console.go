package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/vidvault/backend/internal/logging"
	"github.com/vidvault/backend/internal/models"
)

// ErrProtectedAccount indicates an attempt to delete the admin account itself.
var ErrProtectedAccount = errors.New("protected account cannot be deleted")

// UserStore captures the user operations the console needs.
type UserStore interface {
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id int64) error
}

// VideoStore captures the video operations the console needs.
type VideoStore interface {
	List(ctx context.Context, search string) ([]models.Video, error)
	ListByOwner(ctx context.Context, userID int64) ([]models.Video, error)
	FindByVideoID(ctx context.Context, videoID string) (models.Video, error)
	Delete(ctx context.Context, videoID string) error
}

// ObjectRemover removes stored media objects.
type ObjectRemover interface {
	Delete(ctx context.Context, keys []string) error
}

// Stats aggregates the already-fetched collections; no separate query is issued.
type Stats struct {
	UserCount  int
	VideoCount int
	TotalViews int64
}

// Overview is the privileged aggregate view backing the admin panel.
type Overview struct {
	Users  []models.User
	Videos []models.Video
	Stats  Stats
}

// Console implements the privileged user/video management operations.
// Cascading deletes are best-effort across the object store and the catalog:
// object removal failures are logged only and never block the row delete.
type Console struct {
	Users   UserStore
	Videos  VideoStore
	Storage ObjectRemover

	// ProtectedUserID is the account that can never be deleted.
	ProtectedUserID int64
}

// NewConsole constructs the admin console.
func NewConsole(users UserStore, videos VideoStore, storage ObjectRemover, protectedUserID int64) *Console {
	return &Console{
		Users:           users,
		Videos:          videos,
		Storage:         storage,
		ProtectedUserID: protectedUserID,
	}
}

// Overview returns the user and video listings together with aggregate stats.
func (c *Console) Overview(ctx context.Context) (Overview, error) {
	users, err := c.Users.List(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("list users: %w", err)
	}

	videos, err := c.Videos.List(ctx, "")
	if err != nil {
		return Overview{}, fmt.Errorf("list videos: %w", err)
	}

	stats := Stats{UserCount: len(users), VideoCount: len(videos)}
	for _, video := range videos {
		stats.TotalViews += video.Views
	}

	return Overview{Users: users, Videos: videos, Stats: stats}, nil
}

// DeleteVideo removes a video's storage objects and then its catalog row.
func (c *Console) DeleteVideo(ctx context.Context, videoID string) error {
	video, err := c.Videos.FindByVideoID(ctx, videoID)
	if err != nil {
		return err
	}

	c.removeObjects(ctx, video)

	if err := c.Videos.Delete(ctx, videoID); err != nil {
		return fmt.Errorf("delete video row %s: %w", videoID, err)
	}

	return nil
}

// DeleteUser removes every video owned by the user (objects first) and then
// the user row itself; the catalog cascades the video rows. The protected
// account is rejected before any deletion begins.
func (c *Console) DeleteUser(ctx context.Context, userID int64) error {
	if userID == c.ProtectedUserID {
		return ErrProtectedAccount
	}

	videos, err := c.Videos.ListByOwner(ctx, userID)
	if err != nil {
		return fmt.Errorf("list videos for user %d: %w", userID, err)
	}

	for _, video := range videos {
		c.removeObjects(ctx, video)
	}

	if err := c.Users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user row %d: %w", userID, err)
	}

	return nil
}

// removeObjects deletes a video's media and thumbnail objects. Failures are
// logged only: an orphaned object costs storage, a blocked delete costs more.
func (c *Console) removeObjects(ctx context.Context, video models.Video) {
	keys := []string{video.Filename}
	if video.Thumbnail != "" {
		keys = append(keys, video.Thumbnail)
	}

	if err := c.Storage.Delete(ctx, keys); err != nil {
		logging.FromContext(ctx).Error("remove storage objects", "videoId", video.VideoID, "keys", keys, "error", err)
	}
}
