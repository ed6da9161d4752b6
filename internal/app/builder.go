package app

import (
	"context"
	"log/slog"
	"net/http"

	"falgen/internal/apperr"
	"falgen/internal/fal"
	"falgen/internal/secrets"
	"falgen/internal/storage"
	"falgen/pkg/config"
)

const (
	MissingKeyMessage = "FAL_API_KEY environment variable is not set"
	MissingKeyHint    = "Get your API key from https://fal.ai/dashboard/keys"
)

type secretGetter interface {
	Get(ctx context.Context, name string) (string, error)
	Close() error
}

var newSecretSource = func(ctx context.Context, project string) (secretGetter, error) {
	return secrets.NewSource(ctx, project)
}

type BuildResult struct {
	Service *Service
	closers []func() error
}

func (r *BuildResult) Close() {
	for _, closeFn := range r.closers {
		if err := closeFn(); err != nil {
			slog.Debug("Failed to close client", "error", err)
		}
	}
}

// ResolveAPIKey returns the fal key from the environment, falling back to
// Secret Manager when a project and secret name are configured. The Secret
// Manager lookup is a network call to Google; no request reaches fal until a
// key has been resolved.
func ResolveAPIKey(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.FalAPIKey != "" {
		return cfg.FalAPIKey, nil
	}

	if cfg.GCPProject != "" && cfg.Secrets.FalKeySecret != "" {
		key, err := keyFromSecretManager(ctx, cfg.GCPProject, cfg.Secrets.FalKeySecret)
		if err == nil {
			cfg.FalAPIKey = key
			return key, nil
		}
		slog.Warn("Secret Manager lookup failed", "secret", cfg.Secrets.FalKeySecret, "error", err)
	}

	return "", apperr.New(apperr.MissingCredential, MissingKeyMessage, nil)
}

func keyFromSecretManager(ctx context.Context, project, name string) (string, error) {
	source, err := newSecretSource(ctx, project)
	if err != nil {
		return "", err
	}
	defer func() { _ = source.Close() }()

	return source.Get(ctx, name)
}

func BuildService(ctx context.Context, cfg *config.Config, apiKey string) *BuildResult {
	gateway := fal.NewClient(apiKey, fal.Options{
		QueueURL:     cfg.Fal.QueueURL,
		PollInterval: cfg.Fal.PollInterval,
		Timeout:      cfg.Fal.RequestTimeout,
		PollRetries:  cfg.Fal.PollRetries,
	})

	fetcher := storage.NewLocalStorage(&http.Client{Timeout: cfg.Fal.RequestTimeout})

	result := &BuildResult{}

	var mirror storage.Mirror
	if cfg.GCS.Enabled {
		gcs, err := storage.NewGCSMirror(ctx, cfg.GCS.Bucket, cfg.GCS.Prefix, cfg.GCS.CredentialsFile)
		if err != nil {
			slog.Warn("GCS mirror disabled", "error", err)
		} else {
			mirror = gcs
			result.closers = append(result.closers, gcs.Close)
		}
	}

	result.Service = NewService(ServiceOptions{
		Config:  cfg,
		Gateway: gateway,
		Fetcher: fetcher,
		Mirror:  mirror,
	})

	return result
}
