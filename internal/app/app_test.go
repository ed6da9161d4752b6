package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"falgen/internal/apperr"
	"falgen/internal/fal"
	"falgen/internal/request"
	"falgen/pkg/config"
)

type mockGateway struct {
	result     fal.Result
	err        error
	gotModel   string
	gotPayload map[string]any
	calls      int
}

func (m *mockGateway) Submit(_ context.Context, modelID string, payload map[string]any) (fal.Result, error) {
	m.calls++
	m.gotModel = modelID
	m.gotPayload = payload
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type mockMirror struct {
	uploaded []string
	err      error
}

func (m *mockMirror) Upload(_ context.Context, localPath string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.uploaded = append(m.uploaded, localPath)
	return "gs://bucket/" + filepath.Base(localPath), nil
}

var fixedNow = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.Local) }

// cdn serves a body for every path except names containing "missing".
func cdn(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "missing") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("artifact:" + r.URL.Path))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestService(gateway Submitter, mirror *mockMirror) *Service {
	opts := ServiceOptions{Config: &config.Config{}, Gateway: gateway, Now: fixedNow}
	if mirror != nil {
		opts.Mirror = mirror
	}
	return NewService(opts)
}

func TestGenerateImagesEndToEnd(t *testing.T) {
	server := cdn(t)
	gateway := &mockGateway{result: fal.Result{
		"images": []any{map[string]any{"url": server.URL + "/cat.png"}},
		"seed":   float64(7),
	}}
	dir := t.TempDir()

	outcome, err := newTestService(gateway, nil).GenerateImages(context.Background(), request.ImageParams{
		Prompt:    "A cat",
		Model:     "flux-schnell",
		NumImages: 1,
	}, dir)
	if err != nil {
		t.Fatalf("GenerateImages() error = %v", err)
	}

	if gateway.gotModel != "fal-ai/flux/schnell" {
		t.Errorf("model = %q, want fal-ai/flux/schnell", gateway.gotModel)
	}
	want := map[string]any{"prompt": "A cat", "num_images": 1, "enable_safety_checker": true}
	if !reflect.DeepEqual(gateway.gotPayload, want) {
		t.Errorf("payload = %v, want %v", gateway.gotPayload, want)
	}

	if len(outcome.Images) != 1 {
		t.Fatalf("got %d images, want 1", len(outcome.Images))
	}
	wantPath := filepath.Join(dir, "fal_image_20250102_030405.png")
	if outcome.Images[0].Path != wantPath {
		t.Errorf("path = %q, want %q", outcome.Images[0].Path, wantPath)
	}
	if _, err := os.Stat(wantPath); err != nil {
		t.Errorf("expected downloaded file: %v", err)
	}
	if outcome.Seed == nil || *outcome.Seed != 7 {
		t.Errorf("seed = %v, want 7", outcome.Seed)
	}
	if outcome.Estimate == nil {
		t.Error("expected a cost estimate for flux-schnell")
	}
}

func TestGenerateImagesPartialFailure(t *testing.T) {
	server := cdn(t)
	gateway := &mockGateway{result: fal.Result{
		"images": []any{
			map[string]any{"url": server.URL + "/a.png"},
			map[string]any{"url": server.URL + "/missing.png"},
			map[string]any{"url": server.URL + "/c.png"},
		},
	}}
	dir := t.TempDir()

	outcome, err := newTestService(gateway, nil).GenerateImages(context.Background(), request.ImageParams{
		Prompt:    "three",
		NumImages: 3,
	}, dir)
	if !apperr.Is(err, apperr.Download) {
		t.Fatalf("expected Download error, got %v", err)
	}

	if len(outcome.Images) != 3 {
		t.Fatalf("got %d artifacts, want 3", len(outcome.Images))
	}
	if outcome.Images[1].Err == nil || outcome.Images[1].URL != server.URL+"/missing.png" {
		t.Errorf("second artifact = %+v, want failure with its URL", outcome.Images[1])
	}
	for _, i := range []int{0, 2} {
		if outcome.Images[i].Err != nil {
			t.Errorf("image %d failed: %v", i, outcome.Images[i].Err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "fal_image_20250102_030405_3.png")); err != nil {
		t.Errorf("third image should still be downloaded: %v", err)
	}
}

func TestGenerateImagesKeepsResponseNumbering(t *testing.T) {
	server := cdn(t)
	gateway := &mockGateway{result: fal.Result{
		"images": []any{
			map[string]any{"content_type": "image/png"},
			map[string]any{"url": server.URL + "/b.png"},
		},
	}}
	dir := t.TempDir()

	outcome, err := newTestService(gateway, nil).GenerateImages(context.Background(), request.ImageParams{
		Prompt:    "two",
		NumImages: 2,
	}, dir)
	if err != nil {
		t.Fatalf("GenerateImages() error = %v", err)
	}

	if len(outcome.Images) != 1 {
		t.Fatalf("got %d images, want 1", len(outcome.Images))
	}
	wantPath := filepath.Join(dir, "fal_image_20250102_030405_2.png")
	if outcome.Images[0].Path != wantPath {
		t.Errorf("path = %q, want %q", outcome.Images[0].Path, wantPath)
	}
}

func TestGenerateImagesErrors(t *testing.T) {
	tests := []struct {
		name     string
		gateway  *mockGateway
		params   request.ImageParams
		wantKind apperr.Kind
		wantCall bool
	}{
		{
			name:     "remoteFailure",
			gateway:  &mockGateway{err: apperr.Errorf(apperr.RemoteJob, "boom")},
			params:   request.ImageParams{Prompt: "x"},
			wantKind: apperr.RemoteJob,
			wantCall: true,
		},
		{
			name:     "noImages",
			gateway:  &mockGateway{result: fal.Result{"images": []any{}}},
			params:   request.ImageParams{Prompt: "x"},
			wantKind: apperr.UnexpectedResponseShape,
			wantCall: true,
		},
		{
			name:     "invalidAspect",
			gateway:  &mockGateway{},
			params:   request.ImageParams{Prompt: "x", Aspect: "cinema"},
			wantKind: apperr.Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestService(tt.gateway, nil).GenerateImages(context.Background(), tt.params, t.TempDir())
			if err == nil {
				t.Fatal("expected error")
			}
			if got := apperr.KindOf(err); got != tt.wantKind {
				t.Errorf("kind = %v, want %v", got, tt.wantKind)
			}
			if (tt.gateway.calls > 0) != tt.wantCall {
				t.Errorf("gateway calls = %d, wantCall %v", tt.gateway.calls, tt.wantCall)
			}
		})
	}
}

func TestGenerateVideo(t *testing.T) {
	server := cdn(t)
	img := filepath.Join(t.TempDir(), "in.png")
	_ = os.WriteFile(img, []byte("png"), 0644)

	t.Run("defaultName", func(t *testing.T) {
		gateway := &mockGateway{result: fal.Result{"video": map[string]any{"url": server.URL + "/v.mp4"}}}
		svc := newTestService(gateway, nil)
		svc.cfg.Output.Dir = t.TempDir()

		outcome, err := svc.GenerateVideo(context.Background(), request.VideoParams{ImagePath: img, Model: "kling", Duration: 5}, "")
		if err != nil {
			t.Fatalf("GenerateVideo() error = %v", err)
		}
		if gateway.gotModel != "fal-ai/kling-video/v1.5/pro/image-to-video" {
			t.Errorf("model = %q", gateway.gotModel)
		}
		if gateway.gotPayload["duration"] != "5" {
			t.Errorf("duration = %v, want \"5\"", gateway.gotPayload["duration"])
		}
		if filepath.Base(outcome.Artifact.Path) != "fal_video_20250102_030405.mp4" {
			t.Errorf("path = %q", outcome.Artifact.Path)
		}
	})

	t.Run("missingImage", func(t *testing.T) {
		gateway := &mockGateway{}
		_, err := newTestService(gateway, nil).GenerateVideo(context.Background(), request.VideoParams{ImagePath: "/no/such/file.png"}, "")
		if !apperr.Is(err, apperr.FileNotFound) {
			t.Errorf("expected FileNotFound, got %v", err)
		}
		if gateway.calls != 0 {
			t.Error("gateway must not be called when the image is missing")
		}
	})

	t.Run("downloadFailureKeepsURL", func(t *testing.T) {
		url := server.URL + "/missing.mp4"
		gateway := &mockGateway{result: fal.Result{"url": url}}
		out := filepath.Join(t.TempDir(), "clip.mp4")

		outcome, err := newTestService(gateway, nil).GenerateVideo(context.Background(), request.VideoParams{ImagePath: img}, out)
		if !apperr.Is(err, apperr.Download) {
			t.Fatalf("expected Download error, got %v", err)
		}
		if outcome.Artifact.URL != url {
			t.Errorf("URL = %q, want %q", outcome.Artifact.URL, url)
		}
	})
}

func TestGenerateTextVideo(t *testing.T) {
	server := cdn(t)
	gateway := &mockGateway{result: fal.Result{"video": map[string]any{"url": server.URL + "/t.mp4"}}}
	out := filepath.Join(t.TempDir(), "out.mp4")

	outcome, err := newTestService(gateway, nil).GenerateTextVideo(context.Background(), request.TextVideoParams{
		Prompt:     "waves",
		Model:      "ltx-v2-fast",
		Aspect:     request.DefaultT2VAspect,
		Resolution: request.DefaultT2VResolution,
	}, out)
	if err != nil {
		t.Fatalf("GenerateTextVideo() error = %v", err)
	}
	if gateway.gotModel != "fal-ai/ltx-2/text-to-video/fast" {
		t.Errorf("model = %q", gateway.gotModel)
	}
	if _, ok := gateway.gotPayload["duration"]; ok {
		t.Error("duration should be omitted when unset")
	}
	if outcome.Artifact.Path != out {
		t.Errorf("path = %q, want %q", outcome.Artifact.Path, out)
	}
}

func TestGenerateSpeech(t *testing.T) {
	server := cdn(t)
	gateway := &mockGateway{result: fal.Result{"audio_url": map[string]any{"url": server.URL + "/s.mp3"}}}
	mirror := &mockMirror{}
	svc := newTestService(gateway, mirror)
	svc.cfg.Output.Dir = t.TempDir()

	outcome, err := svc.GenerateSpeech(context.Background(), request.SpeechParams{Text: "Hello there", Model: "f5-tts", Speed: 1.0}, "")
	if err != nil {
		t.Fatalf("GenerateSpeech() error = %v", err)
	}
	if _, ok := gateway.gotPayload["speed"]; ok {
		t.Error("speed 1.0 should be omitted")
	}
	if filepath.Base(outcome.Artifact.Path) != "fal_speech_20250102_030405.mp3" {
		t.Errorf("path = %q", outcome.Artifact.Path)
	}
	if outcome.Artifact.Remote != "gs://bucket/fal_speech_20250102_030405.mp3" {
		t.Errorf("remote = %q", outcome.Artifact.Remote)
	}
	if len(mirror.uploaded) != 1 {
		t.Errorf("mirror uploads = %d, want 1", len(mirror.uploaded))
	}
}

func TestMirrorFailureIsNotFatal(t *testing.T) {
	server := cdn(t)
	gateway := &mockGateway{result: fal.Result{"video": map[string]any{"url": server.URL + "/t.mp4"}}}
	mirror := &mockMirror{err: errors.New("bucket unavailable")}

	outcome, err := newTestService(gateway, mirror).GenerateTextVideo(context.Background(), request.TextVideoParams{Prompt: "x"}, filepath.Join(t.TempDir(), "o.mp4"))
	if err != nil {
		t.Fatalf("mirror failure should not fail the command: %v", err)
	}
	if outcome.Artifact.Path == "" || outcome.Artifact.Remote != "" {
		t.Errorf("artifact = %+v", outcome.Artifact)
	}
}

type fakeSecrets struct {
	value string
	err   error
}

func (f *fakeSecrets) Get(context.Context, string) (string, error) { return f.value, f.err }
func (f *fakeSecrets) Close() error { return nil }

func TestResolveAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		secrets *fakeSecrets
		want    string
		wantErr bool
	}{
		{
			name: "fromEnvironment",
			cfg:  config.Config{FalAPIKey: "env-key"},
			want: "env-key",
		},
		{
			name:    "fromSecretManager",
			cfg:     config.Config{GCPProject: "p", Secrets: config.SecretsConfig{FalKeySecret: "fal"}},
			secrets: &fakeSecrets{value: "sm-key"},
			want:    "sm-key",
		},
		{
			name:    "secretManagerFails",
			cfg:     config.Config{GCPProject: "p", Secrets: config.SecretsConfig{FalKeySecret: "fal"}},
			secrets: &fakeSecrets{err: errors.New("denied")},
			wantErr: true,
		},
		{
			name:    "notConfigured",
			cfg:     config.Config{GCPProject: "p"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := newSecretSource
			defer func() { newSecretSource = orig }()
			newSecretSource = func(context.Context, string) (secretGetter, error) {
				if tt.secrets == nil {
					t.Fatal("secret source should not be used")
				}
				return tt.secrets, nil
			}

			got, err := ResolveAPIKey(context.Background(), &tt.cfg)
			if tt.wantErr {
				if !apperr.Is(err, apperr.MissingCredential) {
					t.Errorf("expected MissingCredential, got %v", err)
				}
				if err != nil && err.Error() != MissingKeyMessage {
					t.Errorf("message = %q, want %q", err.Error(), MissingKeyMessage)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveAPIKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildService(t *testing.T) {
	cfg := &config.Config{}
	cfg.Fal.QueueURL = "https://queue.example.com"

	result := BuildService(context.Background(), cfg, "key")
	defer result.Close()

	if result.Service == nil {
		t.Fatal("BuildService() returned nil service")
	}
	if result.Service.Config() != cfg {
		t.Error("Config() returned wrong config")
	}
	if result.Service.Mirror() != nil {
		t.Error("Mirror() should be nil when GCS is disabled")
	}
}
