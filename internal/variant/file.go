package variant

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
)

// ErrInvalidVariantFile is returned when a variants file holds an unusable entry.
var ErrInvalidVariantFile = errors.New("invalid variant definition")

// fileLayout is the TOML document shape:
//
//	[[variant]]
//	name = "classic"
//	composition_id = "VerseClassic"
//	[variant.defaults]
//	fallback_segment_seconds = 8
type fileLayout struct {
	Variants []Variant `toml:"variant"`
}

// LoadFile decodes variants from a TOML file and registers them over the
// existing entries. Variants with a known name inherit every unset field
// from the registered variant.
func (r *Registry) LoadFile(path string) error {
	var doc fileLayout
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return fmt.Errorf("decode variants file %s: %w", path, err)
	}

	for i, v := range doc.Variants {
		if base, ok := r.variants[normalizeName(v.Name)]; ok {
			v = merge(base, v)
		}
		if err := r.register(v); err != nil {
			return fmt.Errorf("variants file %s entry %d: %w", path, i, err)
		}
	}
	return nil
}

func validate(v Variant) error {
	switch {
	case normalizeName(v.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidVariantFile)
	case v.CompositionID == "":
		return fmt.Errorf("%w: %s: composition_id is required", ErrInvalidVariantFile, v.Name)
	case v.Defaults.FramesPerSecond < 0:
		return fmt.Errorf("%w: %s: fps must not be negative", ErrInvalidVariantFile, v.Name)
	case v.Defaults.TitleSeconds < 0 || v.Defaults.ClosingSeconds < 0 ||
		v.Defaults.FallbackSegmentSeconds < 0 || v.Defaults.FadeSeconds < 0:
		return fmt.Errorf("%w: %s: durations must not be negative", ErrInvalidVariantFile, v.Name)
	case v.Look.Width <= 0 || v.Look.Height <= 0:
		return fmt.Errorf("%w: %s: width and height must be positive", ErrInvalidVariantFile, v.Name)
	case v.Look.Width%2 != 0 || v.Look.Height%2 != 0:
		return fmt.Errorf("%w: %s: width and height must be even", ErrInvalidVariantFile, v.Name)
	}
	for _, c := range []string{v.Look.TextColor, v.Look.BackgroundColor, v.Look.AccentColor} {
		if c != "" && !ValidColor(c) {
			return fmt.Errorf("%w: %s: %w %q", ErrInvalidVariantFile, v.Name, ErrInvalidColor, c)
		}
	}
	return nil
}

// merge overlays the non-zero fields of o on base.
func merge(base, o Variant) Variant {
	out := base
	if o.CompositionID != "" {
		out.CompositionID = o.CompositionID
	}

	d := o.Defaults
	if d.FramesPerSecond != 0 {
		out.Defaults.FramesPerSecond = d.FramesPerSecond
	}
	if d.TitleSeconds != 0 {
		out.Defaults.TitleSeconds = d.TitleSeconds
	}
	if d.ClosingSeconds != 0 {
		out.Defaults.ClosingSeconds = d.ClosingSeconds
	}
	if d.FallbackSegmentSeconds != 0 {
		out.Defaults.FallbackSegmentSeconds = d.FallbackSegmentSeconds
	}
	if d.FadeSeconds != 0 {
		out.Defaults.FadeSeconds = d.FadeSeconds
	}

	l := o.Look
	out.Look.Width = firstInt(l.Width, out.Look.Width)
	out.Look.Height = firstInt(l.Height, out.Look.Height)
	out.Look.FontSize = firstInt(l.FontSize, out.Look.FontSize)
	out.Look.TranslationFontSize = firstInt(l.TranslationFontSize, out.Look.TranslationFontSize)
	out.Look.TitleFontSize = firstInt(l.TitleFontSize, out.Look.TitleFontSize)
	out.Look.TextColor = firstString(l.TextColor, out.Look.TextColor)
	out.Look.BackgroundColor = firstString(l.BackgroundColor, out.Look.BackgroundColor)
	out.Look.AccentColor = firstString(l.AccentColor, out.Look.AccentColor)
	out.Look.ClosingText = firstString(l.ClosingText, out.Look.ClosingText)
	out.Look.FontFile = firstString(l.FontFile, out.Look.FontFile)
	return out
}

func firstInt(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}

func firstString(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
