package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSMirror struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSMirror uses credentialsFile when set, otherwise application default
// credentials.
func NewGCSMirror(ctx context.Context, bucket, prefix, credentialsFile string) (*GCSMirror, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket is not configured")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSMirror{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

func (m *GCSMirror) Close() error {
	return m.client.Close()
}

func (m *GCSMirror) Upload(ctx context.Context, localPath string) (string, error) {
	name := objectName(m.prefix, localPath)

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := m.client.Bucket(m.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType(localPath)

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to upload artifact: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload: %w", err)
	}

	return objectURI(m.bucket, name), nil
}

func objectName(prefix, localPath string) string {
	base := filepath.Base(localPath)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return base
	}
	return path.Join(prefix, base)
}

func objectURI(bucket, name string) string {
	return "gs://" + bucket + "/" + name
}

func contentType(localPath string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(localPath))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
