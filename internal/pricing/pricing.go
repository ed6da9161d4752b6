// Package pricing estimates job cost from a static fal.ai price table.
// Estimates are for display only.
package pricing

import (
	"fmt"
	"strconv"
)

type Unit string

const (
	Megapixels     Unit = "megapixels"
	Images         Unit = "images"
	Seconds        Unit = "seconds"
	ComputeSeconds Unit = "compute_seconds"
	Videos         Unit = "videos"
	Characters1000 Unit = "characters_per_1000"
	Minutes        Unit = "minutes"
	PerRequest     Unit = "per_request"
)

const (
	charsPerMinute  = 750.0
	defaultDuration = 5.0
)

// Entry is a single price quote for one model endpoint.
type Entry struct {
	UnitPrice float64
	Unit      Unit
}

// Usage carries whatever a unit formula needs. Zero Count means one item.
type Usage struct {
	Count      int
	Width      int
	Height     int
	Seconds    float64
	Characters int
}

type Estimate struct {
	Cost      float64
	Unit      Unit
	Breakdown string
}

// Prices fetched from the fal.ai pricing endpoint on 2026-01-04.
var table = map[string]Entry{
	"fal-ai/flux/schnell":               {0.003, Megapixels},
	"fal-ai/flux/dev":                   {0.025, Megapixels},
	"fal-ai/flux-pro/v1.1":              {0.04, Megapixels},
	"fal-ai/flux-realism":               {0.035, Megapixels},
	"fal-ai/recraft-v3":                 {0.04, Images},
	"fal-ai/stable-diffusion-v3-medium": {0.035, Images},

	"fal-ai/kling-video/v1.5/pro/image-to-video": {0.1, Seconds},
	"fal-ai/minimax-video/image-to-video":        {0.5, Videos},
	"fal-ai/luma-dream-machine/image-to-video":   {0.5, Videos},
	"fal-ai/runway-gen3/turbo/image-to-video":    {0.05, Seconds},
	"fal-ai/hunyuan-video-v1.5/image-to-video":   {0.00125, ComputeSeconds},

	"fal-ai/hunyuan-video":                   {0.075, Seconds},
	"fal-ai/hunyuan-video-v1.5/text-to-video": {0.075, Seconds},
	"fal-ai/minimax/video-01":                {0.5, Videos},
	"fal-ai/ltx-video":                       {0.04, Seconds},
	"fal-ai/ltx-2/text-to-video":             {0.04, Seconds},
	"fal-ai/ltx-2/text-to-video/fast":        {0.04, Seconds},
	"fal-ai/wan/v2.1/text-to-video":          {0.05, Seconds},

	"fal-ai/f5-tts":                     {0.05, Characters1000},
	"fal-ai/kokoro":                     {0.02, Characters1000},
	"fal-ai/playht/tts/v3":              {0.03, Minutes},
	"fal-ai/minimax-tts/text-to-speech": {0.1, Characters1000},
}

func Lookup(modelID string) (Entry, bool) {
	e, ok := table[modelID]
	return e, ok
}

// EstimateUsage prices usage against the table. ok is false when the model has no
// entry; that is not an error.
func EstimateUsage(modelID string, usage Usage) (Estimate, bool) {
	entry, ok := table[modelID]
	if !ok {
		return Estimate{}, false
	}

	var est Estimate
	count := usage.Count
	if count <= 0 {
		count = 1
	}
	price := entry.UnitPrice
	p := formatPrice(price)

	switch entry.Unit {
	case Megapixels:
		mp := float64(usage.Width*usage.Height) / 1_000_000
		est.Cost = price * mp * float64(count)
		est.Breakdown = fmt.Sprintf("%d image(s) × %.2fMP × $%s/MP", count, mp, p)
	case Images:
		est.Cost = price * float64(count)
		est.Breakdown = fmt.Sprintf("%d image(s) × $%s/image", count, p)
	case Videos:
		est.Cost = price * float64(count)
		est.Breakdown = fmt.Sprintf("%d video × $%s/video", count, p)
	case Seconds, ComputeSeconds:
		est.Cost = price * usage.Seconds
		est.Breakdown = fmt.Sprintf("%ss × $%s/%s", formatPrice(usage.Seconds), p, entry.Unit)
	case Characters1000:
		est.Cost = price * float64(usage.Characters) / 1000
		est.Breakdown = fmt.Sprintf("%d chars × $%s/1k chars", usage.Characters, p)
	case Minutes:
		minutes := float64(usage.Characters) / charsPerMinute
		est.Cost = price * minutes
		est.Breakdown = fmt.Sprintf("~%.2f min × $%s/min", minutes, p)
	default:
		est.Cost = price * float64(count)
		est.Breakdown = fmt.Sprintf("$%s per request", p)
	}

	est.Unit = entry.Unit
	return est, true
}

func EstimateImage(modelID string, count, width, height int) (Estimate, bool) {
	if width == 0 || height == 0 {
		width, height = 1024, 1024
	}
	return EstimateUsage(modelID, Usage{Count: count, Width: width, Height: height})
}

// EstimateVideo prices a single clip. A zero duration is priced as 5 s, the
// length most endpoints render by default.
func EstimateVideo(modelID string, seconds float64) (Estimate, bool) {
	if seconds <= 0 {
		seconds = defaultDuration
	}
	return EstimateUsage(modelID, Usage{Count: 1, Seconds: seconds})
}

func EstimateSpeech(modelID, text string) (Estimate, bool) {
	return EstimateUsage(modelID, Usage{Count: 1, Characters: len([]rune(text))})
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
