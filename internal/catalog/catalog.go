package catalog

import (
	"fmt"
	"strings"
)

type Category string

const (
	Image     Category = "image"
	Video     Category = "video"
	TextVideo Category = "text-to-video"
	Speech    Category = "tts"
)

// Entry maps a shortname to the fal.ai endpoint id it stands for.
type Entry struct {
	Name string
	ID   string
}

type Size struct {
	Width  int
	Height int
}

const (
	DefaultAspect      = "square"
	DefaultImageModel  = "flux-schnell"
	DefaultVideoModel  = "kling"
	DefaultT2VModel    = "ltx-v2-fast"
	DefaultSpeechModel = "f5-tts"
)

var catalog = map[Category][]Entry{
	Image: {
		{"flux-pro", "fal-ai/flux-pro/v1.1"},
		{"flux-dev", "fal-ai/flux/dev"},
		{"flux-schnell", "fal-ai/flux/schnell"},
		{"flux-realism", "fal-ai/flux-realism"},
		{"stable-diffusion-xl", "fal-ai/stable-diffusion-v3-medium"},
		{"recraft-v3", "fal-ai/recraft-v3"},
	},
	Video: {
		{"kling", "fal-ai/kling-video/v1.5/pro/image-to-video"},
		{"minimax", "fal-ai/minimax-video/image-to-video"},
		{"luma", "fal-ai/luma-dream-machine/image-to-video"},
		{"runway-gen3", "fal-ai/runway-gen3/turbo/image-to-video"},
		{"hunyuan", "fal-ai/hunyuan-video-v1.5/image-to-video"},
	},
	TextVideo: {
		{"hunyuan", "fal-ai/hunyuan-video"},
		{"hunyuan-v1.5", "fal-ai/hunyuan-video-v1.5/text-to-video"},
		{"minimax", "fal-ai/minimax/video-01"},
		{"ltx", "fal-ai/ltx-video"},
		{"ltx-v2", "fal-ai/ltx-2/text-to-video"},
		{"ltx-v2-fast", "fal-ai/ltx-2/text-to-video/fast"},
		{"wan", "fal-ai/wan/v2.1/text-to-video"},
	},
	Speech: {
		{"f5-tts", "fal-ai/f5-tts"},
		{"kokoro", "fal-ai/kokoro"},
		{"playht", "fal-ai/playht/tts/v3"},
		{"minimax-tts", "fal-ai/minimax-tts/text-to-speech"},
	},
}

var aspectRatios = []string{
	"square", "square_hd", "portrait_4_3", "portrait_16_9",
	"landscape_4_3", "landscape_16_9", "21_9", "9_21",
}

var imageSizes = map[string]Size{
	"square":         {1024, 1024},
	"square_hd":      {1536, 1536},
	"portrait_4_3":   {896, 1152},
	"portrait_16_9":  {768, 1344},
	"landscape_4_3":  {1152, 896},
	"landscape_16_9": {1344, 768},
}

func Categories() []Category {
	return []Category{Image, Video, TextVideo, Speech}
}

func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "image", "images":
		return Image, nil
	case "video", "image-to-video", "i2v":
		return Video, nil
	case "text-to-video", "text-video", "t2v":
		return TextVideo, nil
	case "tts", "speech":
		return Speech, nil
	default:
		return "", fmt.Errorf("unknown category: %s", s)
	}
}

func (c Category) Title() string {
	switch c {
	case Image:
		return "image generation"
	case Video:
		return "image-to-video"
	case TextVideo:
		return "text-to-video"
	case Speech:
		return "text-to-speech"
	default:
		return string(c)
	}
}

// Resolve returns the endpoint id for a shortname. Names that are not in the
// table are returned unchanged so raw endpoint ids can be passed through.
func Resolve(category Category, name string) string {
	for _, e := range catalog[category] {
		if e.Name == name {
			return e.ID
		}
	}
	return name
}

// Models returns a copy of the category's entries in display order.
func Models(category Category) []Entry {
	entries := catalog[category]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

func AspectRatios() []string {
	out := make([]string, len(aspectRatios))
	copy(out, aspectRatios)
	return out
}

func ValidAspect(aspect string) bool {
	for _, a := range aspectRatios {
		if a == aspect {
			return true
		}
	}
	return false
}

// ImageSize reports the pixel size fal renders for a named aspect. Aspects
// without a fixed size report ok=false.
func ImageSize(aspect string) (Size, bool) {
	s, ok := imageSizes[aspect]
	return s, ok
}
