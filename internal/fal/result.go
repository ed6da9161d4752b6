package fal

import (
	"log/slog"

	"falgen/internal/apperr"
)

// ImageURL is one entry of the images list. Index is its position in the
// response, so numbering survives skipped entries.
type ImageURL struct {
	Index int
	URL   string
}

// ImageURLs returns the url of every entry in the images list along with
// the length of that list. Entries without a url are skipped with a warning.
func (r Result) ImageURLs() ([]ImageURL, int, error) {
	raw, ok := r["images"].([]any)
	if !ok || len(raw) == 0 {
		return nil, 0, apperr.Errorf(apperr.UnexpectedResponseShape, "no images were generated")
	}

	urls := make([]ImageURL, 0, len(raw))
	for i, item := range raw {
		entry, _ := item.(map[string]any)
		url := stringField(entry, "url")
		if url == "" {
			slog.Warn("Image entry has no url", "index", i)
			continue
		}
		urls = append(urls, ImageURL{Index: i, URL: url})
	}
	if len(urls) == 0 {
		return nil, len(raw), apperr.Errorf(apperr.UnexpectedResponseShape, "no image urls in response")
	}
	return urls, len(raw), nil
}

func (r Result) VideoURL() (string, error) {
	if video, ok := r["video"].(map[string]any); ok {
		if url := stringField(video, "url"); url != "" {
			return url, nil
		}
	}
	if url := stringField(r, "url"); url != "" {
		return url, nil
	}
	return "", apperr.Errorf(apperr.UnexpectedResponseShape, "no video URL in response")
}

// AudioURL accepts audio.url, a top-level url, or audio_url as either a
// string or an object with a url field.
func (r Result) AudioURL() (string, error) {
	if audio, ok := r["audio"].(map[string]any); ok {
		if url := stringField(audio, "url"); url != "" {
			return url, nil
		}
	}
	if url := stringField(r, "url"); url != "" {
		return url, nil
	}
	switch v := r["audio_url"].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case map[string]any:
		if url := stringField(v, "url"); url != "" {
			return url, nil
		}
	}
	return "", apperr.Errorf(apperr.UnexpectedResponseShape, "no audio URL in response")
}

// Seed reports the seed the model used, when it echoes one back.
func (r Result) Seed() (int64, bool) {
	switch v := r["seed"].(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
