package handlers

import (
	"context"

	"github.com/vidvault/backend/internal/admin"
	"github.com/vidvault/backend/internal/auth"
	"github.com/vidvault/backend/internal/catalog"
	"github.com/vidvault/backend/internal/models"
	"github.com/vidvault/backend/internal/upload"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) (int64, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// SessionManager issues, resolves and revokes sessions.
type SessionManager interface {
	Issue(ctx context.Context, user models.User) (auth.Session, error)
	Lookup(ctx context.Context, token string) (auth.Session, error)
	Revoke(ctx context.Context, token string)
}

// VideoUploader runs the upload-and-publish pipeline.
type VideoUploader interface {
	Upload(ctx context.Context, req upload.Request) (string, error)
}

// CatalogViews serves the list/search/watch/dashboard read paths.
type CatalogViews interface {
	List(ctx context.Context, search string) ([]catalog.Entry, error)
	ListByOwner(ctx context.Context, userID int64) ([]catalog.Entry, error)
	Watch(ctx context.Context, videoID string) (catalog.WatchPage, error)
	Related(ctx context.Context, excludeVideoID string) ([]catalog.Entry, error)
}

// VideoFinder resolves a public video id to its catalog row, used for
// ownership checks before deletes.
type VideoFinder interface {
	FindByVideoID(ctx context.Context, videoID string) (models.Video, error)
}

// AdminConsole exposes the privileged management operations.
type AdminConsole interface {
	Overview(ctx context.Context) (admin.Overview, error)
	DeleteUser(ctx context.Context, userID int64) error
	DeleteVideo(ctx context.Context, videoID string) error
}
