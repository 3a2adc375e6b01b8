// Package storage uploads images to Google Cloud Storage.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

const publicBaseURL = "https://storage.googleapis.com"

// Uploader stores an object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, object string, data []byte, contentType string, metadata map[string]string) (string, error)
}

var _ Uploader = (*GCSUploader)(nil)

type GCSUploader struct {
	client *gcs.Client
	bucket string
	logger *slog.Logger
}

// NewGCSUploader builds a client from a decoded service-account JSON document.
func NewGCSUploader(ctx context.Context, credentialsJSON []byte, bucket string, logger *slog.Logger) (*GCSUploader, error) {
	client, err := gcs.NewClient(ctx, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSUploader{client: client, bucket: bucket, logger: logger}, nil
}

func (u *GCSUploader) Upload(ctx context.Context, object string, data []byte, contentType string, metadata map[string]string) (string, error) {
	l := u.logger.With(slog.String("method", "Upload"), slog.String("object", object))

	w := u.client.Bucket(u.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = metadata
	// Small images go up in a single request.
	w.ChunkSize = 0

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		l.ErrorContext(ctx, "Failed to write object", slog.Any("error", err))
		return "", fmt.Errorf("failed to write object %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		l.ErrorContext(ctx, "Failed to finalize object", slog.Any("error", err))
		return "", fmt.Errorf("failed to upload object %s: %w", object, err)
	}

	l.InfoContext(ctx, "Object uploaded", slog.Int("bytes", len(data)))
	return PublicURL(u.bucket, object), nil
}

func (u *GCSUploader) Close() error {
	return u.client.Close()
}

// ObjectName returns "<prefix>/<unixMillis>-<first uuid segment>.png".
func ObjectName(prefix string, now time.Time) string {
	short := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%s/%d-%s.png", prefix, now.UnixMilli(), short)
}

func PublicURL(bucket, object string) string {
	return fmt.Sprintf("%s/%s/%s", publicBaseURL, bucket, object)
}
