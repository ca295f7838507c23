package audio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/maauso/versevideo/internal/media"
)

// DefaultProbeTimeout bounds a single ffprobe call.
const DefaultProbeTimeout = 10 * time.Second

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// FFprobeResolver implements DurationResolver with the ffprobe CLI.
type FFprobeResolver struct {
	ffprobePath string
	runner      media.Runner
	signer      media.AddressSigner
	timeout     time.Duration
}

// Option configures an FFprobeResolver.
type Option func(*FFprobeResolver)

// WithRunner replaces the command runner.
func WithRunner(r media.Runner) Option {
	return func(p *FFprobeResolver) {
		p.runner = r
	}
}

// WithSigner enables s3:// narration addresses.
func WithSigner(s media.AddressSigner) Option {
	return func(p *FFprobeResolver) {
		p.signer = s
	}
}

// WithTimeout sets the per-call probe timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *FFprobeResolver) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewFFprobeResolver creates a resolver. If ffprobePath is empty, it
// defaults to "ffprobe" (found via PATH).
func NewFFprobeResolver(ffprobePath string, opts ...Option) *FFprobeResolver {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	p := &FFprobeResolver{
		ffprobePath: ffprobePath,
		runner:      media.CmdRunner{},
		timeout:     DefaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve implements DurationResolver.
func (p *FFprobeResolver) Resolve(ctx context.Context, address string) (*float64, error) {
	input, err := media.Locate(ctx, p.signer, address)
	if err != nil {
		return nil, &ResolutionError{Address: address, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := []string{"-v", "error"}
	if media.IsRemote(input) {
		// microseconds; lets ffprobe give up on a stalled connection by itself
		args = append(args, "-rw_timeout", strconv.FormatInt(p.timeout.Microseconds(), 10))
	}
	args = append(args,
		"-show_entries", "format=duration",
		"-of", "json",
		input,
	)

	result, err := p.runner.Run(ctx, p.ffprobePath, args, media.RunOptions{})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &ResolutionError{Address: address, Err: fmt.Errorf("ffprobe cancelled: %w", ctxErr)}
		}
		return nil, &ResolutionError{
			Address: address,
			Err:     fmt.Errorf("ffprobe: %w, stderr: %s", err, strings.TrimSpace(string(result.Stderr))),
		}
	}

	seconds, err := parseDuration(result.Stdout)
	if err != nil {
		return nil, &ResolutionError{Address: address, Err: err}
	}
	return seconds, nil
}

var errMalformedOutput = errors.New("malformed ffprobe output")

// parseDuration reads format.duration from ffprobe JSON output. A missing,
// N/A or non-numeric duration yields nil without an error.
func parseDuration(raw []byte) (*float64, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedOutput, err)
	}

	value := strings.TrimSpace(out.Format.Duration)
	if value == "" || strings.EqualFold(value, "N/A") {
		return nil, nil
	}

	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return nil, nil
	}
	return &seconds, nil
}

var _ DurationResolver = (*FFprobeResolver)(nil)
