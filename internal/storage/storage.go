// Package storage uploads the original scan files to an S3-compatible
// bucket so history records can link back to them.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/ziadkadry99/survey-scan/internal/config"
)

// Uploader writes scan files to a bucket and returns public URLs.
type Uploader struct {
	client     *minio.Client
	bucket     string
	publicBase string
	log        *zap.Logger
}

// New connects to the configured endpoint and makes sure the bucket
// exists.
func New(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (*Uploader, error) {
	if log == nil {
		log = zap.NewNop()
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to object storage: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("creating bucket %s: %w", cfg.Bucket, err)
		}
		log.Info("bucket created", zap.String("bucket", cfg.Bucket))
	}

	publicBase := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if publicBase == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicBase = fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)
	}

	return &Uploader{
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: publicBase,
		log:        log,
	}, nil
}

// PutImage stores a scan photo under scans/{userID}/ and returns its
// public URL.
func (u *Uploader) PutImage(ctx context.Context, userID string, data []byte, mime string) (string, error) {
	key := imageKey(userID, mime)
	return u.put(ctx, key, data, mime)
}

// PutAudio stores an audio recording under audios/{userID}/, keeping
// the original extension, and returns its public URL.
func (u *Uploader) PutAudio(ctx context.Context, userID, filename string, data []byte) (string, error) {
	key := audioKey(userID, filename)
	return u.put(ctx, key, data, "application/octet-stream")
}

func (u *Uploader) put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}
	u.log.Info("file uploaded",
		zap.String("key", key),
		zap.Int("bytes", len(data)))
	return u.publicURL(key), nil
}

func (u *Uploader) publicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", u.publicBase, u.bucket, key)
}

func imageKey(userID, mime string) string {
	ext := ".jpg"
	if mime == "image/png" {
		ext = ".png"
	}
	return fmt.Sprintf("scans/%s/%s%s", userID, uuid.New().String(), ext)
}

func audioKey(userID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("audios/%s/%s%s", userID, uuid.New().String(), ext)
}
