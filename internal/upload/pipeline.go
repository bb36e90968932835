package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidvault/backend/internal/logging"
	"github.com/vidvault/backend/internal/models"
)

// MaxFileSize is the upload ceiling enforced before any network call.
const MaxFileSize = 50 << 20 // 50 MiB

// Catalog field limits.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

const videoIDPrefix = "VID-"

// allowedContentTypes is the set of media types accepted for upload.
var allowedContentTypes = map[string]struct{}{
	"video/mp4":       {},
	"video/webm":      {},
	"video/ogg":       {},
	"video/quicktime": {},
	"video/x-msvideo": {},
}

// ValidateFile rejects oversized files and disallowed media types. Both
// checks are pre-flight: an invalid file never reaches the object store.
func ValidateFile(size int64, contentType string) error {
	if size > MaxFileSize {
		return ErrFileTooLarge
	}
	if _, ok := allowedContentTypes[strings.ToLower(strings.TrimSpace(contentType))]; !ok {
		return ErrUnsupportedType
	}
	return nil
}

// NewVideoID produces a public video identifier: the fixed prefix followed by
// the first 12 characters of an uppercased, de-hyphenated v4 uuid. Uniqueness
// rests on the identifier space; the catalog's unique index turns the
// astronomically unlikely collision into an insert error rather than silent
// overwrite.
func NewVideoID() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return videoIDPrefix + raw[:12]
}

// AssetStorage captures the object-store operations the pipeline needs.
type AssetStorage interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, keys []string) error
}

// MetadataStore persists the catalog row matching a stored object.
type MetadataStore interface {
	Create(ctx context.Context, video models.Video) (int64, error)
}

// Request describes a single upload attempt. Progress, when set, receives a
// monotonically increasing percentage from 0 to 100; it is advisory UI
// feedback, not a correctness signal.
type Request struct {
	Filename    string
	Size        int64
	ContentType string
	Title       string
	Description string
	OwnerID     int64
	Body        io.Reader
	Progress    func(percent int)
}

// Pipeline validates a selected file, writes it to the object store and
// records the matching catalog row. The object write and the metadata insert
// are independent calls with no atomicity across them: a failed insert
// triggers a best-effort compensating object delete, and a retry always
// produces a fresh video id and key, never reusing a failed attempt's.
type Pipeline struct {
	Storage AssetStorage
	Videos  MetadataStore

	// NewID and NowFunc are overridable for tests.
	NewID   func() string
	NowFunc func() time.Time
}

// NewPipeline constructs an upload pipeline over the provided collaborators.
func NewPipeline(storage AssetStorage, videos MetadataStore) *Pipeline {
	return &Pipeline{
		Storage: storage,
		Videos:  videos,
		NewID:   NewVideoID,
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// Upload runs the full publish sequence and returns the new public video id.
func (p *Pipeline) Upload(ctx context.Context, req Request) (string, error) {
	ctx, span := logging.StartSpan(ctx, "upload_pipeline")
	defer span.End()

	logger := logging.FromContext(ctx)

	title := strings.TrimSpace(req.Title)
	switch {
	case title == "":
		return "", ErrMissingTitle
	case len(title) > MaxTitleLength:
		return "", ErrTitleTooLong
	}

	description := strings.TrimSpace(req.Description)
	if len(description) > MaxDescriptionLength {
		return "", ErrDescriptionTooLong
	}

	if err := ValidateFile(req.Size, req.ContentType); err != nil {
		return "", err
	}

	videoID := p.newID()
	key := videoID + strings.ToLower(path.Ext(req.Filename))

	body := req.Body
	if req.Progress != nil {
		req.Progress(0)
		if req.Size > 0 {
			body = &progressReader{r: req.Body, total: req.Size, report: req.Progress}
		}
	}

	if _, err := p.Storage.Save(ctx, key, body, req.ContentType); err != nil {
		return "", fmt.Errorf("store video object %s: %w", key, err)
	}

	if req.Progress != nil {
		req.Progress(100)
	}

	video := models.Video{
		VideoID:     videoID,
		Title:       title,
		Description: description,
		Filename:    key,
		UserID:      req.OwnerID,
		CreatedAt:   p.now(),
	}

	if _, err := p.Videos.Create(ctx, video); err != nil {
		p.compensate(key, logger)
		return "", fmt.Errorf("insert video metadata %s: %w", videoID, err)
	}

	logger.Info("video published", "videoId", videoID, "key", key, "ownerId", req.OwnerID)

	return videoID, nil
}

// compensate removes the already-stored object after a failed metadata
// insert. Failure here leaves an orphan object, which is logged and accepted.
func (p *Pipeline) compensate(key string, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.Storage.Delete(ctx, []string{key}); err != nil {
		logger.Error("compensating object delete failed, object orphaned", "key", key, "error", err)
	}
}

func (p *Pipeline) newID() string {
	if p.NewID != nil {
		return p.NewID()
	}
	return NewVideoID()
}

func (p *Pipeline) now() time.Time {
	if p.NowFunc != nil {
		return p.NowFunc()
	}
	return time.Now().UTC()
}

// progressReader reports transfer progress as whole percentages, strictly
// increasing and capped at 100.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report func(percent int)
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.read += int64(n)
		pct := int(pr.read * 100 / pr.total)
		if pct > 100 {
			pct = 100
		}
		if pct > pr.last {
			pr.last = pct
			pr.report(pct)
		}
	}
	return n, err
}
