package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidvault/backend/internal/config"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

func TestBuildDependencies(t *testing.T) {
	cfg := config.Config{
		AdminUserID: 1,
		SessionTTL:  time.Hour,
		ObjectStore: config.ObjectStoreConfig{Bucket: "test-bucket", Endpoint: "http://localhost:9000", Region: "us-east-1"},
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	deps, err := buildDependencies(context.Background(), fakePool{}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if deps.Users == nil {
		t.Fatal("expected user repository to be configured")
	}
	if deps.Sessions == nil {
		t.Fatal("expected session manager to be configured")
	}
	if deps.Uploader == nil {
		t.Fatal("expected upload pipeline to be configured")
	}
	if deps.Catalog == nil {
		t.Fatal("expected catalog service to be configured")
	}
	if deps.Videos == nil {
		t.Fatal("expected video repository to be configured")
	}
	if deps.Admin == nil {
		t.Fatal("expected admin console to be configured")
	}
	if deps.AuthLimiter == nil || deps.UploadLimiter == nil {
		t.Fatal("expected rate limiters to be configured")
	}
}

func TestBuildDependenciesRequiresBucket(t *testing.T) {
	cfg := config.Config{ObjectStore: config.ObjectStoreConfig{Bucket: " "}}

	if _, err := buildDependencies(context.Background(), fakePool{}, cfg); err == nil {
		t.Fatal("expected an error for a missing bucket")
	}
}
