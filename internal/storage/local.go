package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"falgen/internal/apperr"
	"falgen/internal/media"
)

const defaultDownloadTimeout = 300 * time.Second

type LocalStorage struct {
	client *http.Client
}

func NewLocalStorage(client *http.Client) *LocalStorage {
	if client == nil {
		client = &http.Client{Timeout: defaultDownloadTimeout}
	}
	return &LocalStorage{client: client}
}

// Fetch downloads url to outputPath and returns the absolute path written.
// Parent directories are created as needed. Any failure is a Download error.
func (s *LocalStorage) Fetch(ctx context.Context, url, outputPath string) (string, error) {
	op := "download " + url

	path, err := media.ResolvePath(outputPath)
	if err != nil {
		return "", apperr.New(apperr.Download, op, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", apperr.New(apperr.Download, op, fmt.Errorf("failed to create output directory: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", apperr.New(apperr.Download, op, fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", apperr.New(apperr.Download, op, fmt.Errorf("failed to send request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperr.New(apperr.Download, op, fmt.Errorf("unexpected status: %s", resp.Status))
	}

	if err := writeFile(path, resp.Body); err != nil {
		return "", apperr.New(apperr.Download, op, err)
	}

	return path, nil
}

// writeFile streams into a temp file next to path and renames it into place.
func writeFile(path string, r io.Reader) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}
