package main

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ArtifactStore keeps a copy of every run's report files in an S3 bucket,
// under forecast/<run time>/.
type ArtifactStore struct {
	client objectStore
	bucket string
	logger *slog.Logger
}

func NewArtifactStore(cfg Config, logger *slog.Logger) (*ArtifactStore, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("client S3: %w", err)
	}
	return &ArtifactStore{client: client, bucket: cfg.S3Bucket, logger: logger}, nil
}

// Upload stores the files and returns their object keys.
func (s *ArtifactStore) Upload(ctx context.Context, runAt time.Time, files ...string) ([]string, error) {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return nil, fmt.Errorf("bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("création du bucket %s: %w", s.bucket, err)
		}
		s.logger.Info("Bucket créé", "bucket", s.bucket)
	}

	prefix := ObjectPrefix(runAt)
	keys := make([]string, 0, len(files))
	for _, file := range files {
		key := path.Join(prefix, filepath.Base(file))
		info, err := s.client.FPutObject(ctx, s.bucket, key, file, minio.PutObjectOptions{
			ContentType: contentType(file),
		})
		if err != nil {
			return keys, fmt.Errorf("envoi de %s: %w", file, err)
		}
		s.logger.Info("Fichier archivé", "bucket", s.bucket, "key", key, "size", info.Size)
		keys = append(keys, key)
	}
	return keys, nil
}

// ObjectPrefix groups the files of one run.
func ObjectPrefix(runAt time.Time) string {
	return "forecast/" + runAt.UTC().Format("20060102T150405Z")
}

func contentType(file string) string {
	switch filepath.Ext(file) {
	case ".csv":
		return "text/csv"
	case ".png":
		return "image/png"
	case ".svg":
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}
