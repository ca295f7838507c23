package job

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/versevideo/internal/timeline"
	"github.com/maauso/versevideo/internal/variant"
)

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func renderJohn(t *testing.T, env *testEnv) *Artifact {
	t.Helper()
	artifact, err := env.service.Render(context.Background(), Request{Variant: "classic", Segments: johnSegments()})
	require.NoError(t, err)
	return artifact
}

func TestDeliver_SinkFailure(t *testing.T) {
	env := newTestEnv(t, johnResolver())
	artifact := renderJohn(t, env)
	sinkErr := errors.New("broken pipe")

	err := env.service.Deliver(context.Background(), artifact, failingWriter{err: sinkErr})

	stage, ok := StageOf(err)
	require.True(t, ok)
	assert.Equal(t, StageDelivery, stage)
	assert.ErrorIs(t, err, sinkErr)
	assert.NoFileExists(t, artifact.Path)

	record := env.onlyJob(t)
	assert.Equal(t, StatusFailed, record.Status)
	assert.Equal(t, StageDelivery, record.FailedStage)
}

func TestDeliver_CallerCancelled(t *testing.T) {
	env := newTestEnv(t, johnResolver())
	artifact := renderJohn(t, env)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out strings.Builder
	err := env.service.Deliver(ctx, artifact, &out)

	stage, _ := StageOf(err)
	assert.Equal(t, StageDelivery, stage)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, out.Len())
	env.assertTempDirEmpty(t)
}

func TestDeliver_MissingFile(t *testing.T) {
	env := newTestEnv(t, johnResolver())
	artifact := renderJohn(t, env)
	require.NoError(t, os.Remove(artifact.Path))

	err := env.service.Deliver(context.Background(), artifact, &strings.Builder{})

	stage, _ := StageOf(err)
	assert.Equal(t, StageDelivery, stage)
}

func TestArtifact_ReleaseIsIdempotent(t *testing.T) {
	env := newTestEnv(t, johnResolver())
	artifact := renderJohn(t, env)

	artifact.Release()
	artifact.Release()

	assert.NoError(t, artifact.ReleaseErr())
	assert.NoFileExists(t, artifact.Path)

	record := env.onlyJob(t)
	assert.Equal(t, StatusReady, record.Status, "release alone does not deliver")
}

func TestArtifact_ReleaseRunsOnce(t *testing.T) {
	calls := 0
	artifact := &Artifact{release: func() error {
		calls++
		return errors.New("permission denied")
	}}

	artifact.Release()
	artifact.Release()

	assert.Equal(t, 1, calls)
	assert.EqualError(t, artifact.ReleaseErr(), "permission denied")
}

func TestDetectContentType(t *testing.T) {
	env := newTestEnv(t, johnResolver())
	ctx := context.Background()

	tests := []struct {
		name string
		data string
		want string
	}{
		{"mp4", string(mp4Header), "video/mp4"},
		{"png", "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR", "image/png"},
		{"unknown", "plain text", "video/mp4"},
		{"empty", "", "video/mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := env.store.SaveTemp(ctx, "", tt.name, strings.NewReader(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, env.service.detectContentType(ctx, path))
		})
	}

	assert.Equal(t, "video/mp4", env.service.detectContentType(ctx, "/nonexistent/file.mp4"))
}

func TestArtifactFilename(t *testing.T) {
	classic := variant.Variant{Name: "classic"}

	tests := []struct {
		name     string
		segments []timeline.Segment
		want     string
	}{
		{"group name", []timeline.Segment{{Group: &timeline.GroupInfo{Name: "1 Corinthians"}}}, "1-corinthians-render-1.mp4"},
		{"no group", []timeline.Segment{{Text: "x"}}, "classic-render-1.mp4"},
		{"empty group name", []timeline.Segment{{Group: &timeline.GroupInfo{Title: "Psalms"}}}, "classic-render-1.mp4"},
		{"no segments", nil, "classic-render-1.mp4"},
		{"unsluggable", []timeline.Segment{{Group: &timeline.GroupInfo{Name: "詩篇"}}}, "render-render-1.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := artifactFilename(Request{Segments: tt.segments}, classic, "render-1")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"John":           "john",
		"Song of Songs":  "song-of-songs",
		"  --Acts--  ":   "acts",
		"Psalm 23 (KJV)": "psalm-23-kjv",
		"Génesis 1":      "g-nesis-1",
		"":               "",
		"!!!":            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, slug(in), "slug(%q)", in)
	}
}
