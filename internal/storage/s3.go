package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vidvault/backend/internal/config"
)

// S3Storage holds raw media and thumbnail objects in an S3-compatible bucket.
// Keys are flat strings; no directory semantics are assumed.
type S3Storage struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	baseURL  string
}

// NewS3Storage configures a client targeting the provided object store.
func NewS3Storage(ctx context.Context, cfg config.ObjectStoreConfig) (*S3Storage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if strings.TrimSpace(cfg.Endpoint) != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:           cfg.Endpoint,
					SigningRegion: cfg.Region,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		loadOpts = append(loadOpts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return &S3Storage{
		client:   client,
		uploader: uploader,
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// Save uploads the provided content under the given key and returns its
// public location.
func (s *S3Storage) Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", fmt.Errorf("s3 storage: empty key")
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
		ACL:    s3types.ObjectCannedACLPublicRead,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("s3 storage upload %s: %w", key, err)
	}

	return s.PublicURL(key), nil
}

// Delete removes the provided keys in a single batch call. Empty keys are skipped.
func (s *S3Storage) Delete(ctx context.Context, keys []string) error {
	var objects []s3types.ObjectIdentifier
	for _, key := range keys {
		key = strings.TrimLeft(strings.TrimSpace(key), "/")
		if key == "" {
			continue
		}
		objects = append(objects, s3types.ObjectIdentifier{Key: aws.String(key)})
	}
	if len(objects) == 0 {
		return nil
	}

	_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &s3types.Delete{
			Objects: objects,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("s3 storage delete %d objects: %w", len(objects), err)
	}

	return nil
}

// PublicURL derives the browser-reachable location for a stored key.
func (s *S3Storage) PublicURL(key string) string {
	key = strings.TrimLeft(key, "/")
	if s.baseURL == "" {
		return key
	}
	return fmt.Sprintf("%s/%s", s.baseURL, key)
}
