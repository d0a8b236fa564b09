package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"tracehub/pkg/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore is the storage surface the control plane needs: workers push
// collected trace files through it and clients fetch them back out.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, name string, data []byte) error
	PresignedURL(ctx context.Context, bucket, name string, ttl time.Duration) (string, error)
}

// MinioStore implements ObjectStore over a MinIO (or S3-compatible) server.
type MinioStore struct {
	client *minio.Client
}

// NewMinioStore connects to the configured MinIO endpoint and ensures the
// trace bucket exists.
func NewMinioStore(ctx context.Context, cfg *config.StorageConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	store := &MinioStore{client: client}
	if err := store.ensureBucket(ctx, cfg.TraceBucket); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *MinioStore) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return nil
}

// Upload stores an object
func (s *MinioStore) Upload(ctx context.Context, bucket, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return fmt.Errorf("failed to upload object %s/%s: %w", bucket, name, err)
	}
	return nil
}

// PresignedURL returns a time-limited download URL for an object
func (s *MinioStore) PresignedURL(ctx context.Context, bucket, name string, ttl time.Duration) (string, error) {
	params := make(url.Values)
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", name))

	u, err := s.client.PresignedGetObject(ctx, bucket, name, ttl, params)
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s/%s: %w", bucket, name, err)
	}
	return u.String(), nil
}
