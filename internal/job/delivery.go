package job

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/h2non/filetype"

	"github.com/maauso/versevideo/internal/variant"
)

const (
	defaultContentType = "video/mp4"
	// headerSize is the number of leading bytes filetype needs to match a container.
	headerSize = 262
)

// Artifact is a rendered video awaiting delivery. It is owned by a single
// request and removed by Release.
type Artifact struct {
	ID          string
	Path        string
	ContentType string
	Filename    string
	Size        int64

	job        *Job
	release    func() error
	once       sync.Once
	releaseErr error
}

// Release removes the artifact file. It is safe to call more than once;
// only the first call acts.
func (a *Artifact) Release() {
	a.once.Do(func() {
		if a.release != nil {
			a.releaseErr = a.release()
		}
	})
}

// ReleaseErr reports the removal failure of the first Release call, if any.
func (a *Artifact) ReleaseErr() error {
	return a.releaseErr
}

func (s *RenderService) newArtifact(
	ctx context.Context,
	log *slog.Logger,
	job *Job,
	path string,
	size int64,
	req Request,
	v variant.Variant,
) *Artifact {
	return &Artifact{
		ID:          job.ID,
		Path:        path,
		ContentType: s.detectContentType(ctx, path),
		Filename:    artifactFilename(req, v, job.ID),
		Size:        size,
		job:         job,
		release: func() error {
			err := s.storage.CleanupTemp(context.Background(), []string{path})
			if err != nil {
				log.Error("failed to remove artifact",
					slog.String("path", path),
					slog.String("error", err.Error()),
				)
			}
			return err
		},
	}
}

// Deliver streams the artifact into w and then removes it, whatever the
// outcome. A removal failure never turns a successful delivery into an
// error; it is reported through Artifact.ReleaseErr.
func (s *RenderService) Deliver(ctx context.Context, a *Artifact, w io.Writer) error {
	defer a.Release()

	rc, err := s.storage.LoadTemp(ctx, a.Path)
	if err != nil {
		return s.failDelivery(ctx, a, fmt.Errorf("open artifact: %w", err))
	}
	defer func() { _ = rc.Close() }()

	n, err := io.Copy(w, &contextReader{ctx: ctx, r: rc})
	if err != nil {
		return s.failDelivery(ctx, a, fmt.Errorf("stream artifact after %d bytes: %w", n, err))
	}

	if a.job != nil {
		_ = a.job.MarkDelivered()
		s.save(ctx, a.job)
	}
	s.logger.Info("render delivered",
		slog.String("job_id", a.ID),
		slog.Int64("bytes", n),
	)
	return nil
}

func (s *RenderService) failDelivery(ctx context.Context, a *Artifact, err error) error {
	if a.job != nil {
		return s.fail(ctx, a.job, StageDelivery, err)
	}
	return &Error{Stage: StageDelivery, Err: err}
}

// detectContentType sniffs the artifact header.
func (s *RenderService) detectContentType(ctx context.Context, path string) string {
	rc, err := s.storage.LoadTemp(ctx, path)
	if err != nil {
		return defaultContentType
	}
	defer func() { _ = rc.Close() }()

	header := make([]byte, headerSize)
	n, _ := io.ReadFull(rc, header)

	kind, err := filetype.Match(header[:n])
	if err != nil || kind == filetype.Unknown {
		return defaultContentType
	}
	return kind.MIME.Value
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// artifactFilename suggests "<group-or-variant>-<id>.mp4".
func artifactFilename(req Request, v variant.Variant, jobID string) string {
	base := v.Name
	if len(req.Segments) > 0 && req.Segments[0].Group != nil && req.Segments[0].Group.Name != "" {
		base = req.Segments[0].Group.Name
	}
	base = slug(base)
	if base == "" {
		base = "render"
	}
	return base + "-" + jobID + artifactExt
}

// slug lowercases s and keeps only ASCII letters and digits, joining the
// remaining runs with single dashes.
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
		default:
			dash = true
		}
	}
	return b.String()
}
