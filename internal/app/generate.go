package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"falgen/internal/apperr"
	"falgen/internal/catalog"
	"falgen/internal/fal"
	"falgen/internal/pricing"
	"falgen/internal/request"
	"falgen/internal/storage"
)

// Artifact is one generated file. URL is always set once the job has
// finished, so a failed download can still be reported with its source.
type Artifact struct {
	URL    string
	Path   string
	Remote string
	Err    error
}

type ImageOutcome struct {
	ModelID  string
	Images   []Artifact
	Seed     *int64
	Estimate *pricing.Estimate
}

type MediaOutcome struct {
	ModelID  string
	Artifact Artifact
	Seed     *int64
	Estimate *pricing.Estimate
}

// GenerateImages writes every image of the job into outputDir. Each image is
// attempted even when an earlier one fails to download. The error is a
// Download error when any image could not be saved.
func (s *Service) GenerateImages(ctx context.Context, p request.ImageParams, outputDir string) (*ImageOutcome, error) {
	modelID := catalog.Resolve(catalog.Image, p.Model)
	outcome := &ImageOutcome{ModelID: modelID}

	payload, err := request.Image(p)
	if err != nil {
		return outcome, err
	}

	size, _ := catalog.ImageSize(p.Aspect)
	outcome.Estimate = estimate(pricing.EstimateImage(modelID, request.ClampImages(p.NumImages), size.Width, size.Height))

	result, err := s.submit(ctx, modelID, payload)
	if err != nil {
		return outcome, err
	}
	outcome.Seed = seedOf(result)

	urls, total, err := result.ImageURLs()
	if err != nil {
		return outcome, err
	}

	ts := storage.Timestamp(s.now())
	dir := s.outputDir(outputDir)

	var errs []error
	for _, img := range urls {
		artifact := s.save(ctx, img.URL, filepath.Join(dir, storage.ImageName(ts, img.Index, total)))
		if artifact.Err != nil {
			errs = append(errs, artifact.Err)
		}
		outcome.Images = append(outcome.Images, artifact)
	}

	if len(errs) > 0 {
		op := fmt.Sprintf("%d of %d images failed to download", len(errs), len(urls))
		return outcome, apperr.New(apperr.Download, op, errors.Join(errs...))
	}
	return outcome, nil
}

func (s *Service) GenerateVideo(ctx context.Context, p request.VideoParams, output string) (*MediaOutcome, error) {
	modelID := catalog.Resolve(catalog.Video, p.Model)
	outcome := &MediaOutcome{ModelID: modelID}

	payload, err := request.Video(p)
	if err != nil {
		return outcome, err
	}

	outcome.Estimate = estimate(pricing.EstimateVideo(modelID, p.Duration))

	result, err := s.submit(ctx, modelID, payload)
	if err != nil {
		return outcome, err
	}

	url, err := result.VideoURL()
	if err != nil {
		return outcome, err
	}

	path := storage.OutputPath(output, s.outputDir(""), storage.VideoName(storage.Timestamp(s.now())))
	outcome.Artifact = s.save(ctx, url, path)
	return outcome, outcome.Artifact.Err
}

func (s *Service) GenerateTextVideo(ctx context.Context, p request.TextVideoParams, output string) (*MediaOutcome, error) {
	modelID := catalog.Resolve(catalog.TextVideo, p.Model)
	outcome := &MediaOutcome{ModelID: modelID}

	var seconds float64
	if p.Duration != nil {
		seconds = *p.Duration
	}
	outcome.Estimate = estimate(pricing.EstimateVideo(modelID, seconds))

	result, err := s.submit(ctx, modelID, request.TextVideo(p))
	if err != nil {
		return outcome, err
	}
	outcome.Seed = seedOf(result)

	url, err := result.VideoURL()
	if err != nil {
		return outcome, err
	}

	path := storage.OutputPath(output, s.outputDir(""), storage.TextVideoName(storage.Timestamp(s.now())))
	outcome.Artifact = s.save(ctx, url, path)
	return outcome, outcome.Artifact.Err
}

func (s *Service) GenerateSpeech(ctx context.Context, p request.SpeechParams, output string) (*MediaOutcome, error) {
	modelID := catalog.Resolve(catalog.Speech, p.Model)
	outcome := &MediaOutcome{ModelID: modelID}

	payload, err := request.Speech(p)
	if err != nil {
		return outcome, err
	}

	outcome.Estimate = estimate(pricing.EstimateSpeech(modelID, p.Text))

	result, err := s.submit(ctx, modelID, payload)
	if err != nil {
		return outcome, err
	}

	url, err := result.AudioURL()
	if err != nil {
		return outcome, err
	}

	path := storage.OutputPath(output, s.outputDir(""), storage.SpeechName(storage.Timestamp(s.now()), url))
	outcome.Artifact = s.save(ctx, url, path)
	return outcome, outcome.Artifact.Err
}

func (s *Service) submit(ctx context.Context, modelID string, payload request.Payload) (fal.Result, error) {
	if s.gateway == nil {
		return nil, apperr.Errorf(apperr.RemoteJob, "no fal client configured")
	}
	slog.Debug("Submitting job", "model", modelID, "fields", len(payload))
	return s.gateway.Submit(ctx, modelID, payload)
}

// save downloads url to path and mirrors it when a mirror is configured.
// Mirror failures are logged and never fail the artifact.
func (s *Service) save(ctx context.Context, url, path string) Artifact {
	artifact := Artifact{URL: url}

	saved, err := s.fetcher.Fetch(ctx, url, path)
	if err != nil {
		artifact.Err = err
		return artifact
	}
	artifact.Path = saved

	if s.mirror != nil {
		remote, err := s.mirror.Upload(ctx, saved)
		if err != nil {
			slog.Warn("Failed to mirror artifact", "path", saved, "error", err)
		} else {
			artifact.Remote = remote
		}
	}

	return artifact
}

func estimate(e pricing.Estimate, ok bool) *pricing.Estimate {
	if !ok {
		return nil
	}
	return &e
}

func seedOf(r fal.Result) *int64 {
	if seed, ok := r.Seed(); ok {
		return &seed
	}
	return nil
}
