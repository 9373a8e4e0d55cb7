package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"medicare/medicare/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ImageStore keeps uploaded symptom images in MinIO. Objects are
// ephemeral: a handle is released as soon as analysis settles, it is
// superseded by a newer upload, or the owning session ends.
type ImageStore struct {
	client *minio.Client
	bucket string
}

func NewImageStore(cfg config.Config) (*ImageStore, error) {
	bucket := cfg.MinIOBucket
	client, err := minio.New(
		cfg.MinIOEndpoint,
		&minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
			Secure: false,
		},
	)
	if err != nil {
		return nil, err
	}
	exists, err := client.BucketExists(context.Background(), bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(context.Background(), bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}
	return &ImageStore{client: client, bucket: bucket}, nil
}

// Upload stores one image for a session and returns its object key,
// which serves as the opaque image handle.
func (m *ImageStore) Upload(ctx context.Context, sessionID string, r io.Reader, size int64, contentType string) (string, error) {
	key := filepath.Join("uploads", sessionID, uuid.New().String())
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	return key, nil
}

// PreviewURL returns a short-lived presigned GET URL for displaying
// the uploaded image.
func (m *ImageStore) PreviewURL(ctx context.Context, key string) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, 15*time.Minute, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Release removes the object behind an image handle.
func (m *ImageStore) Release(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove image %s: %w", key, err)
	}
	return nil
}
