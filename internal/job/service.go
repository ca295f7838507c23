package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maauso/versevideo/internal/audio"
	"github.com/maauso/versevideo/internal/media"
	"github.com/maauso/versevideo/internal/storage"
	"github.com/maauso/versevideo/internal/timeline"
	"github.com/maauso/versevideo/internal/variant"
)

const (
	// DefaultMaxConcurrentProbes limits parallel duration lookups per request.
	DefaultMaxConcurrentProbes = 8
	artifactExt                = ".mp4"
)

// ErrEmptyArtifact is returned when the renderer succeeded but wrote nothing.
var ErrEmptyArtifact = errors.New("renderer produced an empty artifact")

// VariantSource looks up visual variants by name.
type VariantSource interface {
	Lookup(name string) (variant.Variant, error)
}

// Request is one render request.
type Request struct {
	Variant  string
	Segments []timeline.Segment
	Options  variant.Options
	Style    media.Style
}

// Resolution reports the duration lookup outcome of one segment.
type Resolution struct {
	Segment timeline.SegmentID `json:"segment"`
	// Seconds is nil when the fallback duration was used.
	Seconds *float64 `json:"seconds"`
	Error   string   `json:"error,omitempty"`
}

// RenderService orchestrates the render of a segment list into a video.
type RenderService struct {
	variants VariantSource
	resolver audio.DurationResolver
	renderer media.Renderer
	storage  storage.Storage
	repo     Repository
	logger   *slog.Logger

	maxConcurrentProbes int
	probeTimeout        time.Duration
	renderTimeout       time.Duration
}

// ServiceOption configures a RenderService.
type ServiceOption func(*RenderService)

// WithMaxConcurrentProbes limits how many durations are probed in parallel.
func WithMaxConcurrentProbes(n int) ServiceOption {
	return func(s *RenderService) {
		if n > 0 {
			s.maxConcurrentProbes = n
		}
	}
}

// WithProbeTimeout bounds every single duration lookup.
func WithProbeTimeout(d time.Duration) ServiceOption {
	return func(s *RenderService) {
		if d > 0 {
			s.probeTimeout = d
		}
	}
}

// WithRenderTimeout bounds the render engine run. Zero means no limit.
func WithRenderTimeout(d time.Duration) ServiceOption {
	return func(s *RenderService) {
		if d >= 0 {
			s.renderTimeout = d
		}
	}
}

// NewRenderService creates a new RenderService.
func NewRenderService(
	variants VariantSource,
	resolver audio.DurationResolver,
	renderer media.Renderer,
	store storage.Storage,
	repo Repository,
	logger *slog.Logger,
	opts ...ServiceOption,
) *RenderService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &RenderService{
		variants:            variants,
		resolver:            resolver,
		renderer:            renderer,
		storage:             store,
		repo:                repo,
		logger:              logger,
		maxConcurrentProbes: DefaultMaxConcurrentProbes,
		probeTimeout:        audio.DefaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Render runs a request to completion and returns the artifact, ready for
// Deliver. Every failure returns *Error and leaves no files behind.
func (s *RenderService) Render(ctx context.Context, req Request) (*Artifact, error) {
	job := New(req.Variant, len(req.Segments))
	log := s.logger.With(slog.String("job_id", job.ID))
	s.save(ctx, job)

	log.Info("render requested",
		slog.String("variant", req.Variant),
		slog.Int("segments", len(req.Segments)),
	)

	v, err := s.lookup(req)
	if err != nil {
		return nil, s.fail(ctx, job, StageValidation, err)
	}

	_ = job.Start()
	s.save(ctx, job)

	durations, _, err := s.resolve(ctx, log, req.Segments)
	if err != nil {
		return nil, s.fail(ctx, job, StageResolution, err)
	}

	unresolved := countUnresolved(durations)
	_ = job.StartComposing(unresolved)
	s.save(ctx, job)

	tl, err := timeline.Compose(req.Segments, durations, v.Resolve(req.Options))
	if err != nil {
		return nil, s.fail(ctx, job, StageComposition, err)
	}

	_ = job.StartRendering(tl.TotalFrames, tl.FramesPerSecond)
	s.save(ctx, job)
	log.Info("timeline composed",
		slog.Int("total_frames", tl.TotalFrames),
		slog.Int("unresolved", unresolved),
	)

	artifact, err := s.render(ctx, log, job, v, req, tl)
	if err != nil {
		return nil, s.fail(ctx, job, StageRender, err)
	}

	_ = job.MarkReady(artifact.Size)
	s.save(ctx, job)
	log.Info("render ready",
		slog.Int64("size", artifact.Size),
		slog.Float64("duration_seconds", tl.DurationSeconds()),
	)
	return artifact, nil
}

// Preview resolves durations and composes the timeline without rendering.
func (s *RenderService) Preview(ctx context.Context, req Request) (*timeline.Timeline, []Resolution, error) {
	v, err := s.lookup(req)
	if err != nil {
		return nil, nil, &Error{Stage: StageValidation, Err: err}
	}

	durations, report, err := s.resolve(ctx, s.logger, req.Segments)
	if err != nil {
		return nil, nil, &Error{Stage: StageResolution, Err: err}
	}

	tl, err := timeline.Compose(req.Segments, durations, v.Resolve(req.Options))
	if err != nil {
		return nil, nil, &Error{Stage: StageComposition, Err: err}
	}
	return tl, report, nil
}

// GetJob retrieves a job record by ID.
func (s *RenderService) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.FindByID(ctx, id)
}

// ListJobs returns the retained job records, newest first.
func (s *RenderService) ListJobs(ctx context.Context) ([]*Job, error) {
	return s.repo.List(ctx)
}

// lookup finds the request variant and checks the style overrides.
func (s *RenderService) lookup(req Request) (variant.Variant, error) {
	v, err := s.variants.Lookup(req.Variant)
	if err != nil {
		return variant.Variant{}, err
	}
	if err := req.Style.Validate(); err != nil {
		return variant.Variant{}, err
	}
	return v, nil
}

// resolve probes every narration address concurrently. Individual failures
// only downgrade that segment to the fallback duration; the returned error
// is non-nil only when ctx ends first.
func (s *RenderService) resolve(ctx context.Context, log *slog.Logger, segments []timeline.Segment) ([]timeline.Duration, []Resolution, error) {
	durations := make([]timeline.Duration, len(segments))
	report := make([]Resolution, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrentProbes)

	for i, seg := range segments {
		report[i].Segment = seg.ID
		if seg.NarrationURL == "" {
			continue
		}
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			pctx, cancel := context.WithTimeout(gctx, s.probeTimeout)
			defer cancel()

			d, err := s.resolver.Resolve(pctx, seg.NarrationURL)
			if err != nil {
				log.Warn("narration duration unresolved, using fallback",
					slog.String("segment", seg.ID.String()),
					slog.String("error", err.Error()),
				)
				report[i].Error = err.Error()
				return nil
			}
			durations[i] = d
			report[i].Seconds = d
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("duration resolution abandoned: %w", err)
	}
	return durations, report, nil
}

// render reserves the artifact and runs the engine. The engine is detached
// from caller cancellation and bounded only by the render timeout.
func (s *RenderService) render(
	ctx context.Context,
	log *slog.Logger,
	job *Job,
	v variant.Variant,
	req Request,
	tl *timeline.Timeline,
) (*Artifact, error) {
	path, err := s.storage.Reserve(ctx, job.ID, artifactExt)
	if err != nil {
		return nil, fmt.Errorf("reserve artifact: %w", err)
	}
	workDir, err := s.storage.WorkDir(ctx, job.ID)
	if err != nil {
		s.cleanup(log, path)
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer s.cleanup(log, workDir)

	rctx := context.WithoutCancel(ctx)
	if s.renderTimeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(rctx, s.renderTimeout)
		defer cancel()
	}

	start := time.Now()
	err = s.renderer.Render(rctx, media.RenderInput{
		Variant:    v,
		Segments:   req.Segments,
		Style:      req.Style,
		Timeline:   tl,
		OutputPath: path,
		WorkDir:    workDir,
	})
	if err != nil {
		s.cleanup(log, path)
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		s.cleanup(log, path)
		return nil, fmt.Errorf("stat artifact: %w", err)
	}
	if info.Size() == 0 {
		s.cleanup(log, path)
		return nil, ErrEmptyArtifact
	}

	log.Debug("render engine finished", slog.Duration("elapsed", time.Since(start)))
	return s.newArtifact(ctx, log, job, path, info.Size(), req, v), nil
}

// fail records the failure on the job and wraps err with its stage.
func (s *RenderService) fail(ctx context.Context, job *Job, stage Stage, err error) error {
	_ = job.Fail(stage, err.Error())
	s.save(ctx, job)
	s.logger.Error("render failed",
		slog.String("job_id", job.ID),
		slog.String("stage", string(stage)),
		slog.String("error", err.Error()),
	)
	return &Error{Stage: stage, Err: err}
}

// save stores the job record. Failures are logged and never abort the render.
func (s *RenderService) save(ctx context.Context, job *Job) {
	if err := s.repo.Save(context.WithoutCancel(ctx), job); err != nil {
		s.logger.Warn("failed to save job record",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *RenderService) cleanup(log *slog.Logger, paths ...string) {
	if err := s.storage.CleanupTemp(context.Background(), paths); err != nil {
		log.Warn("failed to remove temporary files", slog.String("error", err.Error()))
	}
}

func countUnresolved(durations []timeline.Duration) int {
	n := 0
	for _, d := range durations {
		if d == nil {
			n++
		}
	}
	return n
}
