package app

import (
	"context"
	"time"

	"falgen/internal/fal"
	"falgen/internal/storage"
	"falgen/pkg/config"
)

type Submitter interface {
	Submit(ctx context.Context, modelID string, payload map[string]any) (fal.Result, error)
}

type Service struct {
	cfg     *config.Config
	gateway Submitter
	fetcher storage.Fetcher
	mirror  storage.Mirror
	now     func() time.Time
}

type ServiceOptions struct {
	Config  *config.Config
	Gateway Submitter
	Fetcher storage.Fetcher
	Mirror  storage.Mirror
	Now     func() time.Time
}

func NewService(opts ServiceOptions) *Service {
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = storage.NewLocalStorage(nil)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		cfg:     cfg,
		gateway: opts.Gateway,
		fetcher: fetcher,
		mirror:  opts.Mirror,
		now:     now,
	}
}

func (s *Service) Config() *config.Config {
	return s.cfg
}

func (s *Service) Mirror() storage.Mirror {
	return s.mirror
}

func (s *Service) outputDir(dir string) string {
	if dir != "" {
		return dir
	}
	if s.cfg.Output.Dir != "" {
		return s.cfg.Output.Dir
	}
	return "."
}
