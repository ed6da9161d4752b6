// Package request turns typed generation parameters into fal request bodies.
// Optional fields are left out entirely when they hold their default.
package request

import (
	"fmt"
	"strconv"

	"falgen/internal/catalog"
	"falgen/internal/media"
)

const (
	minImages = 1
	maxImages = 4

	DefaultVideoDuration = 5.0
	DefaultT2VAspect     = "16:9"
	DefaultT2VResolution = "720p"
	DefaultSpeed         = 1.0
)

type Payload map[string]any

type ImageParams struct {
	Prompt         string
	Model          string
	Aspect         string
	NumImages      int
	Seed           *int
	DisableSafety  bool
	NegativePrompt string
}

type VideoParams struct {
	ImagePath string
	Prompt    string
	Model     string
	Duration  float64
	Aspect    string
}

type TextVideoParams struct {
	Prompt     string
	Model      string
	Aspect     string
	Resolution string
	Duration   *float64
	Seed       *int
}

type SpeechParams struct {
	Text           string
	Model          string
	Voice          string
	ReferenceAudio string
	// Speed of 0 means the model default.
	Speed float64
}

func ClampImages(n int) int {
	return min(max(n, minImages), maxImages)
}

func Image(p ImageParams) (Payload, error) {
	if p.Aspect != "" && !catalog.ValidAspect(p.Aspect) {
		return nil, fmt.Errorf("invalid aspect ratio %q (choose from %v)", p.Aspect, catalog.AspectRatios())
	}

	payload := Payload{
		"prompt":                p.Prompt,
		"num_images":            ClampImages(p.NumImages),
		"enable_safety_checker": !p.DisableSafety,
	}

	if p.Aspect != "" && p.Aspect != catalog.DefaultAspect {
		payload["image_size"] = p.Aspect
	}
	if p.Seed != nil {
		payload["seed"] = *p.Seed
	}
	if p.NegativePrompt != "" {
		payload["negative_prompt"] = p.NegativePrompt
	}

	return payload, nil
}

func Video(p VideoParams) (Payload, error) {
	imageURL, err := media.EncodeImage(p.ImagePath)
	if err != nil {
		return nil, err
	}

	payload := Payload{
		"image_url": imageURL,
	}

	if p.Prompt != "" {
		payload["prompt"] = p.Prompt
	}
	// Image-to-video endpoints take whole seconds as a string.
	if p.Duration != 0 {
		payload["duration"] = strconv.Itoa(int(p.Duration))
	}
	if p.Aspect != "" {
		payload["aspect_ratio"] = p.Aspect
	}

	return payload, nil
}

func TextVideo(p TextVideoParams) Payload {
	payload := Payload{
		"prompt": p.Prompt,
	}

	if p.Aspect != "" {
		payload["aspect_ratio"] = p.Aspect
	}
	if p.Resolution != "" {
		payload["resolution"] = p.Resolution
	}
	if p.Duration != nil {
		payload["duration"] = *p.Duration
	}
	if p.Seed != nil {
		payload["seed"] = *p.Seed
	}

	return payload
}

func Speech(p SpeechParams) (Payload, error) {
	payload := Payload{
		"gen_text": p.Text,
	}

	if p.ReferenceAudio != "" {
		audio, err := media.EncodeAudio(p.ReferenceAudio)
		if err != nil {
			return nil, err
		}
		payload["ref_audio_url"] = audio
	}
	if p.Voice != "" {
		payload["voice"] = p.Voice
	}
	if p.Speed != 0 && p.Speed != DefaultSpeed {
		payload["speed"] = p.Speed
	}

	return payload, nil
}
