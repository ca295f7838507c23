package bootstrap

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/versevideo/internal/config"
	"github.com/maauso/versevideo/internal/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:                8080,
		TempDir:             filepath.Join(t.TempDir(), "renders"),
		FFmpegPath:          "ffmpeg",
		FFprobePath:         "ffprobe",
		MaxConcurrentProbes: 4,
		ProbeTimeout:        5 * time.Second,
		RenderRatePerMin:    30,
		RenderBurst:         5,
		JobHistoryLimit:     20,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewDependencies(t *testing.T) {
	cfg := testConfig(t)

	deps, err := NewDependencies(context.Background(), cfg, testLogger())
	require.NoError(t, err)

	assert.NotNil(t, deps.RenderService)
	assert.Equal(t, []string{"classic", "minimal", "modern"}, deps.Variants.Names())
	assert.Equal(t, cfg.TempDir, deps.Storage.TempDir())
	assert.DirExists(t, cfg.TempDir)
}

func TestNewDependencies_VariantsFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.VariantsFile = filepath.Join(t.TempDir(), "variants.toml")
	require.NoError(t, os.WriteFile(cfg.VariantsFile, []byte(`
[[variant]]
name = "sunrise"
composition_id = "VerseSunrise"

[variant.defaults]
fps = 24
title_seconds = 2
closing_seconds = 1
fallback_segment_seconds = 6

[variant.look]
width = 1920
height = 1080
`), 0o600))

	deps, err := NewDependencies(context.Background(), cfg, testLogger())
	require.NoError(t, err)

	v, err := deps.Variants.Lookup("Sunrise")
	require.NoError(t, err)
	assert.Equal(t, "VerseSunrise", v.CompositionID)
}

func TestNewDependencies_MissingVariantsFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.VariantsFile = filepath.Join(t.TempDir(), "missing.toml")

	_, err := NewDependencies(context.Background(), cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load variants")
}

func TestInitSigner(t *testing.T) {
	cfg := testConfig(t)

	signer, err := initSigner(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	assert.Nil(t, signer)

	cfg.S3Region = "us-east-1"
	cfg.S3Endpoint = "http://localhost:4566"
	cfg.AWSAccessKeyID = "test"
	cfg.AWSSecretAccessKey = "test"

	signer, err = initSigner(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	require.NotNil(t, signer)
	assert.IsType(t, &storage.S3Signer{}, signer)

	url, err := signer.PresignGet(context.Background(), "s3://verses/john/1-1.mp3")
	require.NoError(t, err)
	assert.Contains(t, url, "localhost:4566/verses/john/1-1.mp3")
}
