package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/vidvault/backend/internal/models"
)

type fakeStorage struct {
	saved    map[string][]byte
	saveErr  error
	deleted  [][]string
	saveCall int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{saved: make(map[string][]byte)}
}

func (s *fakeStorage) Save(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	s.saveCall++
	if s.saveErr != nil {
		return "", s.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.saved[key] = data
	return key, nil
}

func (s *fakeStorage) Delete(_ context.Context, keys []string) error {
	s.deleted = append(s.deleted, keys)
	for _, key := range keys {
		delete(s.saved, key)
	}
	return nil
}

type fakeMetadataStore struct {
	created   []models.Video
	createErr error
}

func (m *fakeMetadataStore) Create(_ context.Context, video models.Video) (int64, error) {
	if m.createErr != nil {
		return 0, m.createErr
	}
	m.created = append(m.created, video)
	return int64(len(m.created)), nil
}

func validRequest(body string) Request {
	return Request{
		Filename:    "clip.mp4",
		Size:        int64(len(body)),
		ContentType: "video/mp4",
		Title:       "Test",
		Description: "A short clip",
		OwnerID:     7,
		Body:        strings.NewReader(body),
	}
}

func TestUploadRejectsOversizedFileBeforeAnyCall(t *testing.T) {
	storage := newFakeStorage()
	store := &fakeMetadataStore{}
	pipeline := NewPipeline(storage, store)

	req := validRequest("data")
	req.Size = MaxFileSize + 1

	if _, err := pipeline.Upload(context.Background(), req); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	if storage.saveCall != 0 {
		t.Fatalf("expected no storage call for invalid file, got %d", storage.saveCall)
	}
	if len(store.created) != 0 {
		t.Fatalf("expected no metadata insert for invalid file, got %d", len(store.created))
	}
}

func TestUploadRejectsDisallowedType(t *testing.T) {
	storage := newFakeStorage()
	pipeline := NewPipeline(storage, &fakeMetadataStore{})

	req := validRequest("data")
	req.ContentType = "application/pdf"

	if _, err := pipeline.Upload(context.Background(), req); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if storage.saveCall != 0 {
		t.Fatalf("expected no storage call for invalid type, got %d", storage.saveCall)
	}
}

func TestUploadRejectsMissingTitle(t *testing.T) {
	pipeline := NewPipeline(newFakeStorage(), &fakeMetadataStore{})

	req := validRequest("data")
	req.Title = "   "

	if _, err := pipeline.Upload(context.Background(), req); !errors.Is(err, ErrMissingTitle) {
		t.Fatalf("expected ErrMissingTitle, got %v", err)
	}
}

func TestUploadRejectsOverlongFields(t *testing.T) {
	pipeline := NewPipeline(newFakeStorage(), &fakeMetadataStore{})

	req := validRequest("data")
	req.Title = strings.Repeat("t", MaxTitleLength+1)
	if _, err := pipeline.Upload(context.Background(), req); !errors.Is(err, ErrTitleTooLong) {
		t.Fatalf("expected ErrTitleTooLong, got %v", err)
	}

	req = validRequest("data")
	req.Description = strings.Repeat("d", MaxDescriptionLength+1)
	if _, err := pipeline.Upload(context.Background(), req); !errors.Is(err, ErrDescriptionTooLong) {
		t.Fatalf("expected ErrDescriptionTooLong, got %v", err)
	}
}

func TestUploadStoresObjectAndMetadata(t *testing.T) {
	storage := newFakeStorage()
	store := &fakeMetadataStore{}
	pipeline := NewPipeline(storage, store)

	videoID, err := pipeline.Upload(context.Background(), validRequest("payload"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	key := videoID + ".mp4"
	if !bytes.Equal(storage.saved[key], []byte("payload")) {
		t.Fatalf("expected object stored under %s", key)
	}

	if len(store.created) != 1 {
		t.Fatalf("expected one metadata row, got %d", len(store.created))
	}
	created := store.created[0]
	if created.VideoID != videoID || created.Filename != key || created.UserID != 7 {
		t.Fatalf("unexpected metadata row: %+v", created)
	}
	if created.Thumbnail != "" {
		t.Fatalf("expected thumbnail absent at upload time, got %q", created.Thumbnail)
	}
	if created.Views != 0 {
		t.Fatalf("expected zero initial views, got %d", created.Views)
	}
}

func TestUploadCompensatesAfterFailedInsert(t *testing.T) {
	storage := newFakeStorage()
	store := &fakeMetadataStore{createErr: errors.New("insert failed")}
	pipeline := NewPipeline(storage, store)

	if _, err := pipeline.Upload(context.Background(), validRequest("payload")); err == nil {
		t.Fatal("expected upload to fail when metadata insert fails")
	}

	if len(storage.deleted) != 1 {
		t.Fatalf("expected one compensating delete, got %d", len(storage.deleted))
	}
	if len(storage.saved) != 0 {
		t.Fatalf("expected stored object removed, still have %d", len(storage.saved))
	}
}

func TestUploadIsNotIdempotent(t *testing.T) {
	storage := newFakeStorage()
	store := &fakeMetadataStore{}
	pipeline := NewPipeline(storage, store)

	first, err := pipeline.Upload(context.Background(), validRequest("payload"))
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	second, err := pipeline.Upload(context.Background(), validRequest("payload"))
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}

	if first == second {
		t.Fatalf("expected distinct video ids for repeated uploads, got %s twice", first)
	}
	if len(storage.saved) != 2 {
		t.Fatalf("expected two distinct storage objects, got %d", len(storage.saved))
	}
}

func TestUploadReportsMonotonicProgress(t *testing.T) {
	storage := newFakeStorage()
	pipeline := NewPipeline(storage, &fakeMetadataStore{})

	var reported []int
	req := validRequest(strings.Repeat("x", 1<<16))
	req.Progress = func(percent int) { reported = append(reported, percent) }

	if _, err := pipeline.Upload(context.Background(), req); err != nil {
		t.Fatalf("upload: %v", err)
	}

	if len(reported) == 0 {
		t.Fatal("expected progress updates")
	}
	if reported[0] != 0 {
		t.Fatalf("expected progress to start at 0, got %d", reported[0])
	}
	if reported[len(reported)-1] != 100 {
		t.Fatalf("expected progress to finish at 100, got %d", reported[len(reported)-1])
	}
	for i := 1; i < len(reported); i++ {
		if reported[i] < reported[i-1] {
			t.Fatalf("progress regressed: %v", reported)
		}
		if reported[i] > 100 {
			t.Fatalf("progress exceeded 100: %v", reported)
		}
	}
}

func TestNewVideoIDFormat(t *testing.T) {
	format := regexp.MustCompile(`^VID-[0-9A-F]{12}$`)

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id := NewVideoID()
		if !format.MatchString(id) {
			t.Fatalf("video id %q does not match expected format", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("video id %q generated twice", id)
		}
		seen[id] = struct{}{}
	}
}
