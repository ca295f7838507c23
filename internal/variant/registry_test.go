package variant

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/versevideo/internal/timeline"
)

func TestBuiltin_Names(t *testing.T) {
	assert.Equal(t, []string{"classic", "minimal", "modern"}, Builtin().Names())
}

func TestLookup_CaseInsensitive(t *testing.T) {
	r := Builtin()

	for _, name := range []string{"classic", "Classic", " CLASSIC "} {
		v, err := r.Lookup(name)
		require.NoError(t, err, name)
		assert.Equal(t, "classic", v.Name)
		assert.Equal(t, "VerseClassic", v.CompositionID)
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Builtin().Lookup("baroque")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownVariant)
	assert.Contains(t, err.Error(), "baroque")
}

func TestBuiltin_Defaults(t *testing.T) {
	tests := []struct {
		name     string
		fallback float64
		fade     float64
		title    float64
	}{
		{"classic", 8, 0.8, 2},
		{"modern", 10, 1, 2},
		{"minimal", 8, 1, 3},
	}

	r := Builtin()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := r.Lookup(tt.name)
			require.NoError(t, err)

			cfg := v.Resolve(Options{})
			assert.Equal(t, 30, cfg.FramesPerSecond)
			assert.Equal(t, tt.title, cfg.TitleDurationSeconds)
			assert.Equal(t, 1.0, cfg.ClosingDurationSeconds)
			assert.Equal(t, tt.fallback, cfg.FallbackSegmentDurationSeconds)
			assert.Equal(t, tt.fade, cfg.FadeSeconds)
			assert.Equal(t, 0.0, cfg.MaxDurationSeconds)
			assert.Equal(t, timeline.DefaultEmptyDisplaySeconds, cfg.EmptyDisplaySeconds)
			require.NoError(t, cfg.Validate())
		})
	}
}

func TestResolve_Overrides(t *testing.T) {
	v, err := Builtin().Lookup("classic")
	require.NoError(t, err)

	fps := 60
	title := 0.0
	closing := 4.5
	fallback := 5.0
	limit := 90.0

	cfg := v.Resolve(Options{
		FramesPerSecond:                &fps,
		TitleDurationSeconds:           &title,
		ClosingDurationSeconds:         &closing,
		FallbackSegmentDurationSeconds: &fallback,
		MaxDurationSeconds:             &limit,
	})

	assert.Equal(t, 60, cfg.FramesPerSecond)
	assert.Equal(t, 0.0, cfg.TitleDurationSeconds)
	assert.Equal(t, 4.5, cfg.ClosingDurationSeconds)
	assert.Equal(t, 5.0, cfg.FallbackSegmentDurationSeconds)
	assert.Equal(t, 90.0, cfg.MaxDurationSeconds)
	assert.Equal(t, 0.8, cfg.FadeSeconds)
}

func TestResolve_InvalidOverrideFailsValidation(t *testing.T) {
	v, err := Builtin().Lookup("modern")
	require.NoError(t, err)

	fps := 0
	cfg := v.Resolve(Options{FramesPerSecond: &fps})

	assert.ErrorIs(t, cfg.Validate(), timeline.ErrInvalidConfig)
}

func TestLoadFile_OverridesAndAdds(t *testing.T) {
	path := writeFile(t, `
[[variant]]
name = "Classic"
[variant.defaults]
fallback_segment_seconds = 6
[variant.look]
accent_color = "red"

[[variant]]
name = "sunrise"
composition_id = "VerseSunrise"
[variant.defaults]
fps = 24
title_seconds = 1.5
closing_seconds = 2
fallback_segment_seconds = 7
fade_seconds = 0.5
[variant.look]
width = 1920
height = 1080
font_size = 48
text_color = "white"
background_color = "orange"
`)

	r := Builtin()
	require.NoError(t, r.LoadFile(path))

	classic, err := r.Lookup("classic")
	require.NoError(t, err)
	assert.Equal(t, 6.0, classic.Defaults.FallbackSegmentSeconds)
	assert.Equal(t, 0.8, classic.Defaults.FadeSeconds)
	assert.Equal(t, "VerseClassic", classic.CompositionID)
	assert.Equal(t, "red", classic.Look.AccentColor)
	assert.Equal(t, 1080, classic.Look.Width)

	sunrise, err := r.Lookup("SUNRISE")
	require.NoError(t, err)
	assert.Equal(t, "sunrise", sunrise.Name)
	cfg := sunrise.Resolve(Options{})
	assert.Equal(t, 24, cfg.FramesPerSecond)
	assert.Equal(t, 1.5, cfg.TitleDurationSeconds)
	assert.Equal(t, 7.0, cfg.FallbackSegmentDurationSeconds)

	assert.Equal(t, []string{"classic", "minimal", "modern", "sunrise"}, r.Names())
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing name", "[[variant]]\ncomposition_id = \"X\"\n[variant.look]\nwidth = 2\nheight = 2\n"},
		{"missing composition", "[[variant]]\nname = \"x\"\n[variant.look]\nwidth = 2\nheight = 2\n"},
		{"odd size", "[[variant]]\nname = \"x\"\ncomposition_id = \"X\"\n[variant.look]\nwidth = 3\nheight = 2\n"},
		{"negative fade", "[[variant]]\nname = \"classic\"\n[variant.defaults]\nfade_seconds = -1\n"},
		{"filter in colour", "[[variant]]\nname = \"classic\"\n[variant.look]\nbackground_color = \"red,drawtext=text=x\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Builtin().LoadFile(writeFile(t, tt.doc))
			assert.ErrorIs(t, err, ErrInvalidVariantFile)
		})
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	err := Builtin().LoadFile(writeFile(t, "[[variant]\nname ="))

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidVariantFile)
}

func TestLoadFile_Missing(t *testing.T) {
	err := Builtin().LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "variants.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestValidColor(t *testing.T) {
	tests := []struct {
		color string
		want  bool
	}{
		{"white", true},
		{"AliceBlue", true},
		{"#1C1917", true},
		{"0xD4AF37", true},
		{"0x0F172A80", true},
		{"#12345", false},
		{"", false},
		{"red@0.5", false},
		{"red,drawtext=textfile=/etc/passwd", false},
		{"white:textfile=/etc/shadow", false},
		{"black[v];[v]null", false},
	}

	for _, tt := range tests {
		t.Run(tt.color, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidColor(tt.color))
		})
	}
}
