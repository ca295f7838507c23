package timeline

import (
	"errors"
	"fmt"
	"math"
)

// Default timing values used when neither the variant nor the request sets them.
const (
	DefaultFramesPerSecond     = 30
	DefaultTitleSeconds        = 2.0
	DefaultClosingSeconds      = 1.0
	DefaultFallbackSeconds     = 8.0
	DefaultFadeSeconds         = 0.8
	DefaultEmptyDisplaySeconds = 3.0

	// MaxFramesPerSecond is the highest accepted frame rate.
	MaxFramesPerSecond = 120
	// MaxBlockFrames bounds the frame count of any single duration.
	MaxBlockFrames     = math.MaxInt32
)

// ErrInvalidConfig is the sentinel wrapped by every ConfigError.
var ErrInvalidConfig = errors.New("timeline: invalid configuration")

// ConfigError reports the configuration field that makes timeline math undefined.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("timeline: invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets callers match ErrInvalidConfig with errors.Is.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// Config is the fully resolved timing configuration of one render.
type Config struct {
	// FramesPerSecond is the frame rate; must be positive.
	FramesPerSecond int `json:"frames_per_second"`
	// TitleDurationSeconds is the length of the opening title block.
	TitleDurationSeconds float64 `json:"title_duration_seconds"`
	// ClosingDurationSeconds is the length of the closing block.
	ClosingDurationSeconds float64 `json:"closing_duration_seconds"`
	// FallbackSegmentDurationSeconds replaces unresolved narration durations.
	FallbackSegmentDurationSeconds float64 `json:"fallback_segment_duration_seconds"`
	// FadeSeconds is the per-variant fade window of each segment block.
	FadeSeconds float64 `json:"fade_seconds"`
	// MaxDurationSeconds caps the program length; 0 disables the cap.
	MaxDurationSeconds float64 `json:"max_duration_seconds,omitempty"`
	// EmptyDisplaySeconds is the length of the "no content" display.
	EmptyDisplaySeconds float64 `json:"empty_display_seconds"`
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() Config {
	return Config{
		FramesPerSecond:                DefaultFramesPerSecond,
		TitleDurationSeconds:           DefaultTitleSeconds,
		ClosingDurationSeconds:         DefaultClosingSeconds,
		FallbackSegmentDurationSeconds: DefaultFallbackSeconds,
		FadeSeconds:                    DefaultFadeSeconds,
		EmptyDisplaySeconds:            DefaultEmptyDisplaySeconds,
	}
}

// Validate rejects configurations for which frame math is undefined.
func (c Config) Validate() error {
	switch {
	case c.FramesPerSecond <= 0:
		return &ConfigError{Field: "frames_per_second", Reason: fmt.Sprintf("must be positive, got %d", c.FramesPerSecond)}
	case c.FramesPerSecond > MaxFramesPerSecond:
		return &ConfigError{Field: "frames_per_second", Reason: fmt.Sprintf("must not exceed %d, got %d", MaxFramesPerSecond, c.FramesPerSecond)}
	case !finiteNonNegative(c.TitleDurationSeconds):
		return &ConfigError{Field: "title_duration_seconds", Reason: "must be a non-negative number"}
	case !finiteNonNegative(c.ClosingDurationSeconds):
		return &ConfigError{Field: "closing_duration_seconds", Reason: "must be a non-negative number"}
	case !finiteNonNegative(c.FallbackSegmentDurationSeconds) || c.FallbackSegmentDurationSeconds == 0:
		return &ConfigError{Field: "fallback_segment_duration_seconds", Reason: "must be positive"}
	case !finiteNonNegative(c.FadeSeconds):
		return &ConfigError{Field: "fade_seconds", Reason: "must be a non-negative number"}
	case !finiteNonNegative(c.MaxDurationSeconds):
		return &ConfigError{Field: "max_duration_seconds", Reason: "must be a non-negative number"}
	case !finiteNonNegative(c.EmptyDisplaySeconds):
		return &ConfigError{Field: "empty_display_seconds", Reason: "must be a non-negative number"}
	}

	for _, f := range []struct {
		field   string
		seconds float64
	}{
		{"title_duration_seconds", c.TitleDurationSeconds},
		{"closing_duration_seconds", c.ClosingDurationSeconds},
		{"fallback_segment_duration_seconds", c.FallbackSegmentDurationSeconds},
		{"fade_seconds", c.FadeSeconds},
		{"max_duration_seconds", c.MaxDurationSeconds},
		{"empty_display_seconds", c.EmptyDisplaySeconds},
	} {
		if !fitsFrames(f.seconds, c.FramesPerSecond) {
			return &ConfigError{Field: f.field, Reason: fmt.Sprintf("exceeds %d frames at %d fps", MaxBlockFrames, c.FramesPerSecond)}
		}
	}
	return nil
}

// fitsFrames reports whether seconds converts to at most MaxBlockFrames.
func fitsFrames(seconds float64, fps int) bool {
	return math.Round(seconds*float64(fps)) <= MaxBlockFrames
}
