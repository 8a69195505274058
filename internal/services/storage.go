package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

const (
	ImagePrefix   = "products/"
	MaxImageBytes = 5 << 20
	SignedURLTTL  = time.Hour
)

var (
	ErrStorageUnavailable = errors.New("image storage unavailable")
	ErrUnsupportedImage   = errors.New("unsupported image type")
	ErrImageTooLarge      = errors.New("image exceeds 5 MB")
	ErrInvalidImageKey    = errors.New("invalid image key")
)

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// ImageStore uploads product images to MinIO and hands out presigned URLs.
type ImageStore struct {
	mc     *minio.Client
	bucket string
}

func NewImageStore(mc *minio.Client, bucket string) *ImageStore {
	if mc == nil {
		return nil
	}
	return &ImageStore{mc: mc, bucket: bucket}
}

// ObjectKey names a new object after a random uuid, keeping the original extension.
func ObjectKey(filename string) (key, contentType string, err error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := imageTypes[ext]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedImage, ext)
	}
	return ImagePrefix + uuid.NewString() + ext, contentType, nil
}

// CleanKey validates a key coming back from a URL.
func CleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if !strings.HasPrefix(key, ImagePrefix) || path.Clean(key) != key || strings.Contains(key, "..") {
		return "", ErrInvalidImageKey
	}
	return key, nil
}

// PublicPath is the stable API path that redirects to a fresh presigned URL.
func PublicPath(key string) string {
	return "/api/images/" + key
}

func (s *ImageStore) Upload(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	if s == nil {
		return "", ErrStorageUnavailable
	}
	if fh.Size > MaxImageBytes {
		return "", ErrImageTooLarge
	}
	key, contentType, err := ObjectKey(fh.Filename)
	if err != nil {
		return "", err
	}

	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	_, err = s.mc.PutObject(ctx, s.bucket, key, f, fh.Size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return key, nil
}

func (s *ImageStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s == nil {
		return "", ErrStorageUnavailable
	}
	key, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	u, err := s.mc.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
