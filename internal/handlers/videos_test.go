package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vidvault/backend/internal/admin"
	"github.com/vidvault/backend/internal/auth"
	"github.com/vidvault/backend/internal/catalog"
	"github.com/vidvault/backend/internal/models"
	"github.com/vidvault/backend/internal/repositories"
	"github.com/vidvault/backend/internal/upload"
)

type fakeCatalog struct {
	entries map[string]catalog.Entry
	views   map[string]int64
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{entries: make(map[string]catalog.Entry), views: make(map[string]int64)}
}

func (c *fakeCatalog) add(video models.Video) {
	c.entries[video.VideoID] = catalog.Entry{Video: video, PlaybackURL: "https://media.test/" + video.Filename}
}

func (c *fakeCatalog) List(_ context.Context, search string) ([]catalog.Entry, error) {
	var entries []catalog.Entry
	for _, entry := range c.entries {
		if search == "" || strings.Contains(strings.ToLower(entry.Video.Title), strings.ToLower(search)) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (c *fakeCatalog) ListByOwner(_ context.Context, userID int64) ([]catalog.Entry, error) {
	var entries []catalog.Entry
	for _, entry := range c.entries {
		if entry.Video.UserID == userID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (c *fakeCatalog) Watch(_ context.Context, videoID string) (catalog.WatchPage, error) {
	entry, ok := c.entries[videoID]
	if !ok {
		return catalog.WatchPage{}, repositories.ErrNotFound
	}
	c.views[videoID]++
	entry.Video.Views += c.views[videoID]
	return catalog.WatchPage{Entry: entry}, nil
}

func (c *fakeCatalog) Related(_ context.Context, excludeVideoID string) ([]catalog.Entry, error) {
	var entries []catalog.Entry
	for id, entry := range c.entries {
		if id != excludeVideoID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

type fakeUploader struct {
	lastRequest upload.Request
	bodyCopy    []byte
	videoID     string
	err         error
}

func (u *fakeUploader) Upload(_ context.Context, req upload.Request) (string, error) {
	u.lastRequest = req
	if req.Body != nil {
		u.bodyCopy, _ = io.ReadAll(req.Body)
	}
	if u.err != nil {
		return "", u.err
	}
	return u.videoID, nil
}

type fakeVideoFinder struct {
	videos map[string]models.Video
}

func (f *fakeVideoFinder) FindByVideoID(_ context.Context, videoID string) (models.Video, error) {
	video, ok := f.videos[videoID]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

type fakeAdminConsole struct {
	deletedVideos []string
	deletedUsers  []int64
	err           error
}

func (c *fakeAdminConsole) Overview(context.Context) (admin.Overview, error) {
	return admin.Overview{}, c.err
}

func (c *fakeAdminConsole) DeleteUser(_ context.Context, userID int64) error {
	if c.err != nil {
		return c.err
	}
	c.deletedUsers = append(c.deletedUsers, userID)
	return nil
}

func (c *fakeAdminConsole) DeleteVideo(_ context.Context, videoID string) error {
	if c.err != nil {
		return c.err
	}
	c.deletedVideos = append(c.deletedVideos, videoID)
	return nil
}

func issueSession(t *testing.T, manager *auth.Manager, user models.User) auth.Session {
	t.Helper()
	session, err := manager.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	return session
}

func multipartBody(t *testing.T, title, description, filename, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if title != "" {
		if err := writer.WriteField("title", title); err != nil {
			t.Fatalf("write title field: %v", err)
		}
	}
	if description != "" {
		if err := writer.WriteField("description", description); err != nil {
			t.Fatalf("write description field: %v", err)
		}
	}

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
	header["Content-Type"] = []string{contentType}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create file part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write file payload: %v", err)
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	return &buf, writer.FormDataContentType()
}

func TestVideoHandlerListAndSearch(t *testing.T) {
	cat := newFakeCatalog()
	cat.add(models.Video{VideoID: "VID-AAAAAAAAAAAA", Title: "Gopher Conference Keynote", Filename: "a.mp4"})
	cat.add(models.Video{VideoID: "VID-BBBBBBBBBBBB", Title: "Baking Bread", Filename: "b.mp4"})

	handler := VideoHandler{Catalog: cat}

	rec := httptest.NewRecorder()
	handler.Collection(rec, httptest.NewRequest(http.MethodGet, "/api/v1/videos?q=gopher", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp videoListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(resp.Videos) != 1 || resp.Videos[0].VideoID != "VID-AAAAAAAAAAAA" {
		t.Fatalf("expected the keynote video only, got %+v", resp.Videos)
	}
	if resp.Videos[0].PlaybackURL == "" {
		t.Fatal("expected a playback URL in the listing")
	}
}

func TestVideoHandlerWatchIncrementsViews(t *testing.T) {
	cat := newFakeCatalog()
	cat.add(models.Video{VideoID: "VID-AAAAAAAAAAAA", Title: "Keynote", Filename: "a.mp4"})

	handler := VideoHandler{Catalog: cat}

	watch := func() watchResponse {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/VID-AAAAAAAAAAAA", nil)
		req.SetPathValue("videoID", "VID-AAAAAAAAAAAA")
		rec := httptest.NewRecorder()
		handler.Resource(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
		}
		var resp watchResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		return resp
	}

	if first := watch(); first.Video.Views != 1 {
		t.Fatalf("expected 1 view after first watch, got %d", first.Video.Views)
	}
	if second := watch(); second.Video.Views != 2 {
		t.Fatalf("expected 2 views after second watch, got %d", second.Video.Views)
	}
}

func TestVideoHandlerWatchNotFound(t *testing.T) {
	handler := VideoHandler{Catalog: newFakeCatalog()}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/VID-MISSING00000", nil)
	req.SetPathValue("videoID", "VID-MISSING00000")
	rec := httptest.NewRecorder()

	handler.Resource(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestVideoHandlerUpload(t *testing.T) {
	manager := newTestSessionManager()
	session := issueSession(t, manager, models.User{ID: 7, Username: "bob"})

	uploader := &fakeUploader{videoID: "VID-0123456789AB"}
	handler := VideoHandler{Uploader: uploader, Sessions: manager}

	payload := []byte("fake mp4 bytes")
	body, contentType := multipartBody(t, "My First Video", "a description", "clip.mp4", "video/mp4", payload)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec := httptest.NewRecorder()

	handler.Collection(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["videoId"] != "VID-0123456789AB" {
		t.Fatalf("expected the published video id, got %q", resp["videoId"])
	}

	got := uploader.lastRequest
	if got.Title != "My First Video" || got.Description != "a description" {
		t.Fatalf("unexpected metadata: %+v", got)
	}
	if got.Filename != "clip.mp4" || got.ContentType != "video/mp4" {
		t.Fatalf("unexpected file attributes: %+v", got)
	}
	if got.OwnerID != 7 {
		t.Fatalf("expected owner 7, got %d", got.OwnerID)
	}
	if got.Size != int64(len(payload)) {
		t.Fatalf("expected size %d, got %d", len(payload), got.Size)
	}
	if !bytes.Equal(uploader.bodyCopy, payload) {
		t.Fatal("uploaded bytes did not reach the pipeline intact")
	}
}

func TestVideoHandlerUploadRequiresSession(t *testing.T) {
	handler := VideoHandler{Uploader: &fakeUploader{}, Sessions: newTestSessionManager()}

	body, contentType := multipartBody(t, "Title", "", "clip.mp4", "video/mp4", []byte("bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Collection(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestVideoHandlerUploadValidationError(t *testing.T) {
	manager := newTestSessionManager()
	session := issueSession(t, manager, models.User{ID: 7, Username: "bob"})

	uploader := &fakeUploader{err: upload.ErrUnsupportedType}
	handler := VideoHandler{Uploader: uploader, Sessions: manager}

	body, contentType := multipartBody(t, "Title", "", "notes.txt", "text/plain", []byte("not a video"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec := httptest.NewRecorder()

	handler.Collection(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestVideoHandlerUploadRateLimited(t *testing.T) {
	manager := newTestSessionManager()
	session := issueSession(t, manager, models.User{ID: 7, Username: "bob"})

	handler := VideoHandler{Uploader: &fakeUploader{}, Sessions: manager, Limiter: denyAllLimiter{}}

	body, contentType := multipartBody(t, "Title", "", "clip.mp4", "video/mp4", []byte("bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec := httptest.NewRecorder()

	handler.Collection(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d got %d", http.StatusTooManyRequests, rec.Code)
	}
}

func TestVideoHandlerDeleteByOwner(t *testing.T) {
	manager := newTestSessionManager()
	session := issueSession(t, manager, models.User{ID: 7, Username: "bob"})

	finder := &fakeVideoFinder{videos: map[string]models.Video{
		"VID-AAAAAAAAAAAA": {VideoID: "VID-AAAAAAAAAAAA", UserID: 7},
	}}
	console := &fakeAdminConsole{}
	handler := VideoHandler{Videos: finder, Admin: console, Sessions: manager}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/videos/VID-AAAAAAAAAAAA", nil)
	req.SetPathValue("videoID", "VID-AAAAAAAAAAAA")
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec := httptest.NewRecorder()

	handler.Resource(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d got %d", http.StatusNoContent, rec.Code)
	}
	if len(console.deletedVideos) != 1 || console.deletedVideos[0] != "VID-AAAAAAAAAAAA" {
		t.Fatalf("expected the video to be deleted, got %v", console.deletedVideos)
	}
}

func TestVideoHandlerDeleteForbiddenForStranger(t *testing.T) {
	manager := newTestSessionManager()
	session := issueSession(t, manager, models.User{ID: 9, Username: "mallory"})

	finder := &fakeVideoFinder{videos: map[string]models.Video{
		"VID-AAAAAAAAAAAA": {VideoID: "VID-AAAAAAAAAAAA", UserID: 7},
	}}
	console := &fakeAdminConsole{}
	handler := VideoHandler{Videos: finder, Admin: console, Sessions: manager}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/videos/VID-AAAAAAAAAAAA", nil)
	req.SetPathValue("videoID", "VID-AAAAAAAAAAAA")
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec := httptest.NewRecorder()

	handler.Resource(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d got %d", http.StatusForbidden, rec.Code)
	}
	if len(console.deletedVideos) != 0 {
		t.Fatalf("expected no deletion, got %v", console.deletedVideos)
	}
}

func TestVideoHandlerDeleteAllowedForAdmin(t *testing.T) {
	manager := newTestSessionManager()
	admin := issueSession(t, manager, models.User{ID: 1, Username: "root"})

	finder := &fakeVideoFinder{videos: map[string]models.Video{
		"VID-AAAAAAAAAAAA": {VideoID: "VID-AAAAAAAAAAAA", UserID: 7},
	}}
	console := &fakeAdminConsole{}
	handler := VideoHandler{Videos: finder, Admin: console, Sessions: manager}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/videos/VID-AAAAAAAAAAAA", nil)
	req.SetPathValue("videoID", "VID-AAAAAAAAAAAA")
	req.Header.Set("Authorization", "Bearer "+admin.Token)
	rec := httptest.NewRecorder()

	handler.Resource(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d got %d", http.StatusNoContent, rec.Code)
	}
}

func TestVideoHandlerMine(t *testing.T) {
	manager := newTestSessionManager()
	session := issueSession(t, manager, models.User{ID: 7, Username: "bob"})

	cat := newFakeCatalog()
	cat.add(models.Video{VideoID: "VID-AAAAAAAAAAAA", Title: "Mine", UserID: 7, Filename: "a.mp4"})
	cat.add(models.Video{VideoID: "VID-BBBBBBBBBBBB", Title: "Theirs", UserID: 8, Filename: "b.mp4"})

	handler := VideoHandler{Catalog: cat, Sessions: manager}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me/videos", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec := httptest.NewRecorder()

	handler.Mine(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp videoListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Videos) != 1 || resp.Videos[0].VideoID != "VID-AAAAAAAAAAAA" {
		t.Fatalf("expected only the caller's videos, got %+v", resp.Videos)
	}
}

func TestVideoHandlerRoutes(t *testing.T) {
	cat := newFakeCatalog()
	cat.add(models.Video{VideoID: "VID-AAAAAAAAAAAA", Title: "Keynote", Filename: "a.mp4"})

	mux := http.NewServeMux()
	RegisterRoutes(mux, Dependencies{
		Users:    newInMemoryUserStore(),
		Sessions: newTestSessionManager(),
		Uploader: &fakeUploader{videoID: "VID-0123456789AB"},
		Catalog:  cat,
		Videos:   &fakeVideoFinder{videos: map[string]models.Video{}},
		Admin:    &fakeAdminConsole{},
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := server.Client().Get(server.URL + "/api/v1/videos/VID-AAAAAAAAAAAA/related")
	if err != nil {
		t.Fatalf("request related: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, resp.StatusCode)
	}

	var related videoListResponse
	if err := json.NewDecoder(resp.Body).Decode(&related); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(related.Videos) != 0 {
		t.Fatalf("expected no related videos for the only catalog entry, got %+v", related.Videos)
	}
}
