package media

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"falgen/internal/apperr"
)

const (
	defaultImageMIME = "image/png"
	defaultAudioMIME = "audio/mpeg"
)

var imageMIMETypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

var audioMIMETypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
}

func ImageMIME(path string) string {
	return mimeFor(path, imageMIMETypes, defaultImageMIME)
}

func AudioMIME(path string) string {
	return mimeFor(path, audioMIMETypes, defaultAudioMIME)
}

// EncodeImage reads a local image and returns it as a data URI.
func EncodeImage(path string) (string, error) {
	return encodeFile(path, "image", ImageMIME)
}

// EncodeAudio reads a local audio clip and returns it as a data URI.
func EncodeAudio(path string) (string, error) {
	return encodeFile(path, "audio", AudioMIME)
}

func DataURI(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

func encodeFile(path, label string, mimeOf func(string) string) (string, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s path: %w", label, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return "", apperr.New(apperr.FileNotFound, fmt.Sprintf("%s not found: %s", capitalize(label), path), err)
		}
		return "", fmt.Errorf("failed to read %s: %w", label, err)
	}

	return DataURI(mimeOf(resolved), data), nil
}

// ResolvePath expands a leading ~ and returns an absolute, cleaned path.
func ResolvePath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}

// RequireFile reports FileNotFound when path does not exist.
func RequireFile(path, label string) (string, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s path: %w", label, err)
	}
	if _, err := os.Stat(resolved); err != nil {
		if os.IsNotExist(err) {
			return "", apperr.New(apperr.FileNotFound, fmt.Sprintf("%s not found: %s", capitalize(label), path), err)
		}
		return "", fmt.Errorf("failed to stat %s: %w", label, err)
	}
	return resolved, nil
}

func mimeFor(path string, table map[string]string, fallback string) string {
	if mt, ok := table[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	return fallback
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
