package media

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"falgen/internal/apperr"
)

func TestImageMIME(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"cat.png", "image/png"},
		{"cat.PNG", "image/png"},
		{"cat.jpg", "image/jpeg"},
		{"cat.jpeg", "image/jpeg"},
		{"cat.webp", "image/webp"},
		{"cat.gif", "image/gif"},
		{"cat.tiff", "image/png"},
		{"cat", "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := ImageMIME(tt.path); got != tt.want {
				t.Errorf("ImageMIME(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestAudioMIME(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"voice.mp3", "audio/mpeg"},
		{"voice.wav", "audio/wav"},
		{"voice.ogg", "audio/ogg"},
		{"voice.m4a", "audio/mp4"},
		{"voice.FLAC", "audio/flac"},
		{"voice.aiff", "audio/mpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := AudioMIME(tt.path); got != tt.want {
				t.Errorf("AudioMIME(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestEncodeImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.png")
	data := []byte{0x89, 0x50, 0x4e, 0x47}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := EncodeImage(path)
	if err != nil {
		t.Fatalf("EncodeImage() error: %v", err)
	}

	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
	if got != want {
		t.Errorf("EncodeImage() = %q, want %q", got, want)
	}
}

func TestEncodeAudioUnknownSuffix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.raw")
	if err := os.WriteFile(path, []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := EncodeAudio(path)
	if err != nil {
		t.Fatalf("EncodeAudio() error: %v", err)
	}
	if !strings.HasPrefix(got, "data:audio/mpeg;base64,") {
		t.Errorf("EncodeAudio() = %q, want audio/mpeg prefix", got)
	}
}

func TestEncodeMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.png")

	_, err := EncodeImage(missing)
	if !apperr.Is(err, apperr.FileNotFound) {
		t.Errorf("EncodeImage() error = %v, want FileNotFound", err)
	}

	_, err = EncodeAudio(missing)
	if !apperr.Is(err, apperr.FileNotFound) {
		t.Errorf("EncodeAudio() error = %v, want FileNotFound", err)
	}
	if err != nil && !strings.Contains(err.Error(), "Audio not found") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestRequireFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ref.wav")
	_ = os.WriteFile(path, []byte("x"), 0644)

	got, err := RequireFile(path, "reference audio")
	if err != nil {
		t.Fatalf("RequireFile() error: %v", err)
	}
	if got != path {
		t.Errorf("RequireFile() = %q, want %q", got, path)
	}

	_, err = RequireFile(filepath.Join(dir, "gone.wav"), "reference audio")
	if !apperr.Is(err, apperr.FileNotFound) {
		t.Errorf("RequireFile() error = %v, want FileNotFound", err)
	}
}

func TestResolvePathExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ResolvePath("~/clips/a.png")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, "clips", "a.png"); got != want {
		t.Errorf("ResolvePath() = %q, want %q", got, want)
	}
}
