// Package media drives the ffmpeg render engine that turns a composed
// timeline into a video file.
package media

import (
	"context"
	"fmt"

	"github.com/maauso/versevideo/internal/timeline"
	"github.com/maauso/versevideo/internal/variant"
)

// Style carries caller presentation overrides. It is passed through the
// job untouched and merged over the variant look by the renderer.
type Style struct {
	TextColor       string `json:"text_color,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	AccentColor     string `json:"accent_color,omitempty"`
	BackgroundURL   string `json:"background_url,omitempty"`
	Title           string `json:"title,omitempty"`
	ClosingText     string `json:"closing_text,omitempty"`
}

// Validate rejects colour overrides outside the accepted notation.
func (s Style) Validate() error {
	for _, c := range []struct{ field, value string }{
		{"text_color", s.TextColor},
		{"background_color", s.BackgroundColor},
		{"accent_color", s.AccentColor},
	} {
		if c.value != "" && !variant.ValidColor(c.value) {
			return fmt.Errorf("%w: %s %q", variant.ErrInvalidColor, c.field, c.value)
		}
	}
	return nil
}

// RenderInput is everything the engine needs to materialise one video.
type RenderInput struct {
	Variant  variant.Variant
	Segments []timeline.Segment
	Style    Style
	Timeline *timeline.Timeline
	// OutputPath is the artifact location reserved by the caller.
	OutputPath string
	// WorkDir holds intermediate files such as drawtext sources.
	WorkDir string
}

// Renderer materialises a timeline into a video file at RenderInput.OutputPath.
// Implementations must honour ctx cancellation and never remove the output.
type Renderer interface {
	Render(ctx context.Context, in RenderInput) error
}
