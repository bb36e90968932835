package app

import (
	"context"
	"time"

	"github.com/vidvault/backend/internal/admin"
	"github.com/vidvault/backend/internal/auth"
	"github.com/vidvault/backend/internal/catalog"
	"github.com/vidvault/backend/internal/config"
	"github.com/vidvault/backend/internal/db"
	"github.com/vidvault/backend/internal/handlers"
	"github.com/vidvault/backend/internal/middleware"
	"github.com/vidvault/backend/internal/repositories"
	"github.com/vidvault/backend/internal/storage"
	"github.com/vidvault/backend/internal/upload"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, err
	}

	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)
	sessionStore := repositories.NewPostgresSessionStore(pool)

	return handlers.Dependencies{
		Users:         users,
		Sessions:      auth.NewManager(cfg.SessionTTL, cfg.AdminUserID, sessionStore),
		Uploader:      upload.NewPipeline(store, videos),
		Catalog:       catalog.NewService(videos, store),
		Videos:        videos,
		Admin:         admin.NewConsole(users, videos, store, cfg.AdminUserID),
		AuthLimiter:   middleware.NewIPRateLimiter(10, time.Minute, 10, 10*time.Minute),
		UploadLimiter: middleware.NewIPRateLimiter(5, time.Minute, 5, 10*time.Minute),
	}, nil
}
