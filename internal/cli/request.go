package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/maauso/versevideo/internal/job"
	"github.com/maauso/versevideo/internal/media"
	"github.com/maauso/versevideo/internal/timeline"
	"github.com/maauso/versevideo/internal/variant"
)

// requestFile is the JSON document read by --request. Unlike the HTTP
// boundary it accepts local narration paths.
type requestFile struct {
	Variant  string             `json:"variant"`
	Segments []timeline.Segment `json:"segments"`
	Config   struct {
		FramesPerSecond                *int     `json:"fps"`
		TitleDurationSeconds           *float64 `json:"title_duration_seconds"`
		ClosingDurationSeconds         *float64 `json:"closing_duration_seconds"`
		FallbackSegmentDurationSeconds *float64 `json:"fallback_segment_duration_seconds"`
		MaxDurationSeconds             *float64 `json:"max_duration_seconds"`
	} `json:"config"`
	Style media.Style `json:"style"`
}

// requestFlags are the overrides shared by the timeline and render commands.
type requestFlags struct {
	path    string
	variant string
	fps     int
}

func (f requestFlags) load() (job.Request, error) {
	if f.path == "" {
		return job.Request{}, errors.New("--request is required")
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return job.Request{}, fmt.Errorf("read request: %w", err)
	}

	var doc requestFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return job.Request{}, fmt.Errorf("decode request %s: %w", f.path, err)
	}
	if f.variant != "" {
		doc.Variant = f.variant
	}
	if f.fps > 0 {
		doc.Config.FramesPerSecond = &f.fps
	}

	return job.Request{
		Variant:  doc.Variant,
		Segments: doc.Segments,
		Options: variant.Options{
			FramesPerSecond:                doc.Config.FramesPerSecond,
			TitleDurationSeconds:           doc.Config.TitleDurationSeconds,
			ClosingDurationSeconds:         doc.Config.ClosingDurationSeconds,
			FallbackSegmentDurationSeconds: doc.Config.FallbackSegmentDurationSeconds,
			MaxDurationSeconds:             doc.Config.MaxDurationSeconds,
		},
		Style: doc.Style,
	}, nil
}
