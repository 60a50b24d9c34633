package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	// photoKeyPrefix is the bucket path convention for technician photos.
	photoKeyPrefix = "techniciens/photos/"
	// presignExpiry is how long thumbnail URLs stay valid.
	presignExpiry = time.Hour
	// MaxPhotoSize caps uploads at 10MB.
	MaxPhotoSize = 10 * 1024 * 1024
)

// allowed photo extensions, lowercase
var allowedExtensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// PhotoStoreInterface defines the operations the handlers need.
type PhotoStoreInterface interface {
	Upload(ctx context.Context, technicienID uint, filename string, r io.Reader, size int64) (string, error)
	PresignedURL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// PhotoStore keeps technician photos in a minio bucket.
type PhotoStore struct {
	client *minio.Client
	bucket string
}

var _ PhotoStoreInterface = (*PhotoStore)(nil)

// NewPhotoStore connects to minio and makes sure the bucket exists.
func NewPhotoStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*PhotoStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect minio: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket: %w", err)
		}
	}

	return &PhotoStore{client: client, bucket: bucket}, nil
}

// ValidatePhoto rejects oversized files and non-image extensions.
func ValidatePhoto(filename string, size int64) error {
	if size > MaxPhotoSize {
		return fmt.Errorf("photo exceeds maximum size of %d MB", MaxPhotoSize/(1024*1024))
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return fmt.Errorf("unsupported photo format %q", ext)
	}
	return nil
}

// Upload stores a photo under techniciens/photos/ and returns the object key.
func (s *PhotoStore) Upload(ctx context.Context, technicienID uint, filename string, r io.Reader, size int64) (string, error) {
	if err := ValidatePhoto(filename, size); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	key := fmt.Sprintf("%s%d_%d%s", photoKeyPrefix, technicienID, time.Now().Unix(), ext)

	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: allowedExtensions[ext],
	})
	if err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}
	return key, nil
}

// PresignedURL returns a temporary download URL for the admin thumbnail,
// or "" when the technician has no photo.
func (s *PhotoStore) PresignedURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, presignExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign photo: %w", err)
	}
	return u.String(), nil
}

// Delete removes a photo object. Deleting a missing key is not an error.
func (s *PhotoStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}
