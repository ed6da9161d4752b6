package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const timestampLayout = "20060102_150405"

func Timestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// ImageName returns the file name for image index (zero based) of total.
// The index suffix is only added when the job produced more than one image.
func ImageName(ts string, index, total int) string {
	if total > 1 {
		return fmt.Sprintf("fal_image_%s_%d.png", ts, index+1)
	}
	return fmt.Sprintf("fal_image_%s.png", ts)
}

func VideoName(ts string) string {
	return fmt.Sprintf("fal_video_%s.mp4", ts)
}

func TextVideoName(ts string) string {
	return fmt.Sprintf("fal_video_t2v_%s.mp4", ts)
}

func SpeechName(ts, url string) string {
	return fmt.Sprintf("fal_speech_%s.%s", ts, AudioExt(url))
}

func AudioExt(url string) string {
	switch {
	case strings.Contains(url, ".mp3"):
		return "mp3"
	case strings.Contains(url, ".ogg"):
		return "ogg"
	default:
		return "wav"
	}
}

// OutputPath uses explicit when set, otherwise name inside dir.
func OutputPath(explicit, dir, name string) string {
	if explicit != "" {
		return explicit
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, name)
}
