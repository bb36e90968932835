package thumbs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/vidvault/backend/internal/models"
)

// FrameGrabber produces a JPEG preview frame for a video source.
type FrameGrabber interface {
	Generate(ctx context.Context, source string) ([]byte, error)
}

// VideoSource lists videos lacking a preview image and records generated keys.
type VideoSource interface {
	ListMissingThumbnails(ctx context.Context) ([]models.Video, error)
	SetThumbnail(ctx context.Context, videoID, thumbnail string) error
}

// ThumbnailStorage persists generated frames next to the media objects.
type ThumbnailStorage interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	PublicURL(key string) string
}

// Backfiller generates preview images for catalog videos that predate
// thumbnail support. A per-video failure is logged and skipped; the batch
// carries on.
type Backfiller struct {
	Generator FrameGrabber
	Storage   ThumbnailStorage
	Videos    VideoSource
	Logger    *slog.Logger
	Workers   int
}

// NewBackfiller constructs a backfiller with the provided worker count.
func NewBackfiller(generator FrameGrabber, storage ThumbnailStorage, videos VideoSource, workers int, logger *slog.Logger) *Backfiller {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Backfiller{
		Generator: generator,
		Storage:   storage,
		Videos:    videos,
		Logger:    logger,
		Workers:   workers,
	}
}

// Run processes every video without a thumbnail and returns how many preview
// images were generated.
func (b *Backfiller) Run(ctx context.Context) (int, error) {
	videos, err := b.Videos.ListMissingThumbnails(ctx)
	if err != nil {
		return 0, fmt.Errorf("list videos missing thumbnails: %w", err)
	}

	if len(videos) == 0 {
		return 0, nil
	}

	jobs := make(chan models.Video)
	var generated int64
	var wg sync.WaitGroup

	wg.Add(b.Workers)
	for i := 0; i < b.Workers; i++ {
		go func() {
			defer wg.Done()
			for video := range jobs {
				if err := b.process(ctx, video); err != nil {
					b.Logger.Error("thumbnail backfill failed", "videoId", video.VideoID, "error", err)
					continue
				}
				atomic.AddInt64(&generated, 1)
			}
		}()
	}

	for _, video := range videos {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return int(atomic.LoadInt64(&generated)), ctx.Err()
		case jobs <- video:
		}
	}
	close(jobs)
	wg.Wait()

	return int(atomic.LoadInt64(&generated)), nil
}

func (b *Backfiller) process(ctx context.Context, video models.Video) error {
	source := b.Storage.PublicURL(video.Filename)

	frame, err := b.Generator.Generate(ctx, source)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("thumb_%s.jpg", video.VideoID)
	if _, err := b.Storage.Save(ctx, key, bytes.NewReader(frame), "image/jpeg"); err != nil {
		return fmt.Errorf("store thumbnail %s: %w", key, err)
	}

	if err := b.Videos.SetThumbnail(ctx, video.VideoID, key); err != nil {
		return fmt.Errorf("record thumbnail %s: %w", key, err)
	}

	b.Logger.Info("thumbnail generated", "videoId", video.VideoID, "key", key)
	return nil
}
