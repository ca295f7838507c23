// Package variant defines the registered visual variants. A variant only
// controls presentation and timing defaults; every variant shares the same
// timeline compositor.
package variant

import (
	"strings"

	"github.com/maauso/versevideo/internal/timeline"
)

// Defaults are the timing values a variant applies when a request omits them.
type Defaults struct {
	FramesPerSecond        int     `toml:"fps" json:"frames_per_second"`
	TitleSeconds           float64 `toml:"title_seconds" json:"title_duration_seconds"`
	ClosingSeconds         float64 `toml:"closing_seconds" json:"closing_duration_seconds"`
	FallbackSegmentSeconds float64 `toml:"fallback_segment_seconds" json:"fallback_segment_duration_seconds"`
	FadeSeconds            float64 `toml:"fade_seconds" json:"fade_seconds"`
}

// Look holds the presentation attributes handed to the renderer.
type Look struct {
	Width               int    `toml:"width" json:"width"`
	Height              int    `toml:"height" json:"height"`
	FontSize            int    `toml:"font_size" json:"font_size"`
	TranslationFontSize int    `toml:"translation_font_size" json:"translation_font_size"`
	TitleFontSize       int    `toml:"title_font_size" json:"title_font_size"`
	TextColor           string `toml:"text_color" json:"text_color"`
	BackgroundColor     string `toml:"background_color" json:"background_color"`
	AccentColor         string `toml:"accent_color" json:"accent_color"`
	ClosingText         string `toml:"closing_text" json:"closing_text"`
	FontFile            string `toml:"font_file" json:"font_file,omitempty"`
}

// Variant is a named visual presentation style.
type Variant struct {
	// Name is the public, case-insensitive identifier used in requests.
	Name string `toml:"name" json:"name"`
	// CompositionID identifies the composition handed to the render engine.
	CompositionID string   `toml:"composition_id" json:"composition_id"`
	Defaults      Defaults `toml:"defaults" json:"defaults"`
	Look          Look     `toml:"look" json:"look"`
}

// Options are request-level timing overrides. Nil fields fall back to the
// variant defaults.
type Options struct {
	FramesPerSecond                *int
	TitleDurationSeconds           *float64
	ClosingDurationSeconds         *float64
	FallbackSegmentDurationSeconds *float64
	MaxDurationSeconds             *float64
}

// Resolve merges request options over the variant defaults. The result is
// not validated here; timeline.Compose rejects undefined values.
func (v Variant) Resolve(opts Options) timeline.Config {
	cfg := timeline.DefaultConfig()
	if v.Defaults.FramesPerSecond != 0 {
		cfg.FramesPerSecond = v.Defaults.FramesPerSecond
	}
	cfg.TitleDurationSeconds = v.Defaults.TitleSeconds
	cfg.ClosingDurationSeconds = v.Defaults.ClosingSeconds
	if v.Defaults.FallbackSegmentSeconds != 0 {
		cfg.FallbackSegmentDurationSeconds = v.Defaults.FallbackSegmentSeconds
	}
	cfg.FadeSeconds = v.Defaults.FadeSeconds

	if opts.FramesPerSecond != nil {
		cfg.FramesPerSecond = *opts.FramesPerSecond
	}
	if opts.TitleDurationSeconds != nil {
		cfg.TitleDurationSeconds = *opts.TitleDurationSeconds
	}
	if opts.ClosingDurationSeconds != nil {
		cfg.ClosingDurationSeconds = *opts.ClosingDurationSeconds
	}
	if opts.FallbackSegmentDurationSeconds != nil {
		cfg.FallbackSegmentDurationSeconds = *opts.FallbackSegmentDurationSeconds
	}
	if opts.MaxDurationSeconds != nil {
		cfg.MaxDurationSeconds = *opts.MaxDurationSeconds
	}
	return cfg
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
