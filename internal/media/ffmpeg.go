package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/maauso/versevideo/internal/timeline"
	"github.com/maauso/versevideo/internal/variant"
)

// Static errors for render operations.
var (
	// ErrEmptyTimeline is returned when the timeline has no frames to render.
	ErrEmptyTimeline = errors.New("timeline has no frames")
	// ErrMissingOutput is returned when RenderInput has no output path.
	ErrMissingOutput = errors.New("output path is required")
)

const (
	audioSampleRate = 48000
	noContentText   = "No content available"

	defaultTextColor       = "white"
	defaultBackgroundColor = "black"
)

// FileSaver stores the intermediate files of a render.
type FileSaver interface {
	SaveTemp(ctx context.Context, dir, name string, data io.Reader) (string, error)
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".bmp":  true,
}

// FFmpegRenderer implements Renderer with a single ffmpeg invocation.
type FFmpegRenderer struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	files      FileSaver
	runner     Runner
	signer     AddressSigner
	logger     *slog.Logger
}

// RendererOption configures an FFmpegRenderer.
type RendererOption func(*FFmpegRenderer)

// WithRunner replaces the command runner.
func WithRunner(r Runner) RendererOption {
	return func(f *FFmpegRenderer) {
		f.runner = r
	}
}

// WithSigner enables s3:// narration and background addresses.
func WithSigner(s AddressSigner) RendererOption {
	return func(f *FFmpegRenderer) {
		f.signer = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RendererOption {
	return func(f *FFmpegRenderer) {
		f.logger = l
	}
}

// NewFFmpegRenderer creates a new FFmpegRenderer that writes its drawtext
// sources through files. If ffmpegPath is empty, it defaults to "ffmpeg"
// (found via PATH).
func NewFFmpegRenderer(ffmpegPath string, files FileSaver, opts ...RendererOption) *FFmpegRenderer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	r := &FFmpegRenderer{
		ffmpegPath: ffmpegPath,
		files:      files,
		runner:     CmdRunner{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render implements Renderer.
func (r *FFmpegRenderer) Render(ctx context.Context, in RenderInput) error {
	if in.Timeline == nil || in.Timeline.TotalFrames <= 0 {
		return ErrEmptyTimeline
	}
	if in.OutputPath == "" {
		return ErrMissingOutput
	}
	if err := in.Timeline.Validate(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	for _, b := range in.Timeline.Segments {
		if b.SegmentIndex < 0 || b.SegmentIndex >= len(in.Segments) {
			return fmt.Errorf("render: %w: block references segment %d of %d",
				timeline.ErrBrokenTimeline, b.SegmentIndex, len(in.Segments))
		}
	}

	if err := os.MkdirAll(filepath.Dir(in.OutputPath), 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if in.WorkDir == "" {
		in.WorkDir = filepath.Dir(in.OutputPath)
	}
	if err := os.MkdirAll(in.WorkDir, 0o750); err != nil {
		return fmt.Errorf("create work directory: %w", err)
	}

	args, err := r.buildArgs(ctx, in)
	if err != nil {
		return err
	}
	return r.runFFmpeg(ctx, args)
}

// buildArgs assembles the ffmpeg command line for one render.
func (r *FFmpegRenderer) buildArgs(ctx context.Context, in RenderInput) ([]string, error) {
	look := mergeLook(in.Variant.Look, in.Style)
	if err := checkColors(look); err != nil {
		return nil, err
	}
	tl := in.Timeline

	video, err := r.background(ctx, look, in.Style.BackgroundURL, tl.FramesPerSecond)
	if err != nil {
		return nil, err
	}

	video, err = r.drawBlocks(ctx, video, in, look)
	if err != nil {
		return nil, err
	}

	audio := r.mixNarration(ctx, in)

	out := ffmpeg.Output([]*ffmpeg.Stream{video, audio}, in.OutputPath, ffmpeg.KwArgs{
		"frames:v": strconv.Itoa(tl.TotalFrames),
		"r":        strconv.Itoa(tl.FramesPerSecond),
		"c:v":      "libx264",
		"preset":   "veryfast",
		"crf":      "23",
		"pix_fmt":  "yuv420p",
		"c:a":      "aac",
		"b:a":      "128k",
		"movflags": "+faststart",
	}).OverWriteOutput()

	return out.GetArgs(), nil
}

// background returns the base video stream: a solid colour source or the
// caller's background media looped and cropped to the variant size.
func (r *FFmpegRenderer) background(ctx context.Context, look variant.Look, address string, fps int) (*ffmpeg.Stream, error) {
	if address == "" {
		src := fmt.Sprintf("color=c=%s:s=%dx%d:r=%d", lavfiValue(look.BackgroundColor), look.Width, look.Height, fps)
		return ffmpeg.Input(src, ffmpeg.KwArgs{"f": "lavfi"}).Video(), nil
	}

	input, err := Locate(ctx, r.signer, address)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}

	inputArgs := ffmpeg.KwArgs{"stream_loop": "-1"}
	if imageExtensions[strings.ToLower(filepath.Ext(strings.SplitN(input, "?", 2)[0]))] {
		inputArgs = ffmpeg.KwArgs{"loop": "1"}
	}

	return ffmpeg.Input(input, inputArgs).Video().
		Filter("scale", ffmpeg.Args{}, ffmpeg.KwArgs{
			"w":                           look.Width,
			"h":                           look.Height,
			"force_original_aspect_ratio": "increase",
		}).
		Filter("crop", ffmpeg.Args{}, ffmpeg.KwArgs{"w": look.Width, "h": look.Height}).
		Filter("setsar", ffmpeg.Args{}, ffmpeg.KwArgs{"sar": "1"}).
		Filter("fps", ffmpeg.Args{}, ffmpeg.KwArgs{"fps": fps}), nil
}

// drawBlocks overlays the title, segment and closing text onto video.
func (r *FFmpegRenderer) drawBlocks(ctx context.Context, video *ffmpeg.Stream, in RenderInput, look variant.Look) (*ffmpeg.Stream, error) {
	tl := in.Timeline
	lineWidth := charsPerLine(look.Width, look.FontSize)

	if text := titleText(in); tl.Title.LengthFrames > 0 && text != "" {
		path, err := r.writeTextFile(ctx, in.WorkDir, "title.txt", wrap(text, charsPerLine(look.Width, look.TitleFontSize)))
		if err != nil {
			return nil, err
		}
		video = drawText(video, look, textLayer{
			file:  path,
			size:  look.TitleFontSize,
			color: look.AccentColor,
			y:     "(h-text_h)/2",
			start: tl.Title.StartFrame,
			end:   tl.Title.EndFrame(),
		})
	}

	for _, b := range tl.Segments {
		seg := in.Segments[b.SegmentIndex]
		alpha := fadeAlpha(b)

		if seg.Group != nil && seg.Group.Name != "" {
			label := fmt.Sprintf("%s %d", seg.Group.Name, seg.ID.Ordinal)
			path, err := r.writeTextFile(ctx, in.WorkDir, fmt.Sprintf("segment-%03d-label.txt", b.SegmentIndex), label)
			if err != nil {
				return nil, err
			}
			video = drawText(video, look, textLayer{
				file: path, size: look.TranslationFontSize, color: look.AccentColor,
				y: "h*0.12", start: b.StartFrame, end: b.EndFrame(), alpha: alpha,
			})
		}

		path, err := r.writeTextFile(ctx, in.WorkDir, fmt.Sprintf("segment-%03d.txt", b.SegmentIndex), wrap(seg.Text, lineWidth))
		if err != nil {
			return nil, err
		}
		video = drawText(video, look, textLayer{
			file: path, size: look.FontSize, color: look.TextColor,
			y: "h*0.42-text_h/2", start: b.StartFrame, end: b.EndFrame(), alpha: alpha,
		})

		if seg.Translation != "" {
			path, err := r.writeTextFile(ctx, in.WorkDir, fmt.Sprintf("segment-%03d-translation.txt", b.SegmentIndex),
				wrap(seg.Translation, charsPerLine(look.Width, look.TranslationFontSize)))
			if err != nil {
				return nil, err
			}
			video = drawText(video, look, textLayer{
				file: path, size: look.TranslationFontSize, color: look.TextColor,
				y: "h*0.66", start: b.StartFrame, end: b.EndFrame(), alpha: alpha,
			})
		}
	}

	if tl.Closing.LengthFrames > 0 && look.ClosingText != "" {
		path, err := r.writeTextFile(ctx, in.WorkDir, "closing.txt", wrap(look.ClosingText, lineWidth))
		if err != nil {
			return nil, err
		}
		video = drawText(video, look, textLayer{
			file: path, size: look.FontSize, color: look.AccentColor,
			y: "(h-text_h)/2", start: tl.Closing.StartFrame, end: tl.Closing.EndFrame(),
		})
	}

	return video, nil
}

// mixNarration delays every segment's narration to its block start over a
// silent bed that spans the whole program.
func (r *FFmpegRenderer) mixNarration(ctx context.Context, in RenderInput) *ffmpeg.Stream {
	tl := in.Timeline
	bed := ffmpeg.Input(
		fmt.Sprintf("anullsrc=channel_layout=stereo:sample_rate=%d", audioSampleRate),
		ffmpeg.KwArgs{"f": "lavfi", "t": formatSeconds(tl.DurationSeconds())},
	).Audio()

	tracks := []*ffmpeg.Stream{bed}
	for _, b := range tl.Segments {
		seg := in.Segments[b.SegmentIndex]
		if seg.NarrationURL == "" || b.LengthFrames == 0 {
			continue
		}

		input, err := Locate(ctx, r.signer, seg.NarrationURL)
		if err != nil {
			r.logger.Warn("narration skipped",
				slog.String("segment", seg.ID.String()),
				slog.String("error", err.Error()),
			)
			continue
		}

		delayMs := int64(tl.FrameSeconds(b.StartFrame) * 1000)
		track := ffmpeg.Input(input).Audio().
			Filter("atrim", ffmpeg.Args{}, ffmpeg.KwArgs{"end": formatSeconds(tl.FrameSeconds(b.LengthFrames))}).
			Filter("asetpts", ffmpeg.Args{"PTS-STARTPTS"}).
			Filter("adelay", ffmpeg.Args{}, ffmpeg.KwArgs{"delays": strconv.FormatInt(delayMs, 10), "all": "1"})
		tracks = append(tracks, track)
	}

	if len(tracks) == 1 {
		return bed
	}
	return ffmpeg.Filter(tracks, "amix", ffmpeg.Args{}, ffmpeg.KwArgs{
		"inputs":             strconv.Itoa(len(tracks)),
		"duration":           "first",
		"dropout_transition": "0",
		"normalize":          "0",
	})
}

type textLayer struct {
	file  string
	size  int
	color string
	y     string
	start int
	end   int
	alpha string
}

func drawText(video *ffmpeg.Stream, look variant.Look, l textLayer) *ffmpeg.Stream {
	kw := ffmpeg.KwArgs{
		"textfile":     l.file,
		"fontsize":     l.size,
		"fontcolor":    l.color,
		"x":            "(w-text_w)/2",
		"y":            l.y,
		"line_spacing": l.size / 4,
		"enable":       fmt.Sprintf("between(n,%d,%d)", l.start, l.end-1),
	}
	if look.FontFile != "" {
		kw["fontfile"] = look.FontFile
	}
	if l.alpha != "" {
		kw["alpha"] = l.alpha
	}
	return video.Filter("drawtext", ffmpeg.Args{}, kw)
}

// fadeAlpha returns a frame-based opacity expression for a segment block,
// or "" when the block has no fade window.
func fadeAlpha(b timeline.SegmentBlock) string {
	fadeIn := ""
	if b.FadeInFrames > 0 {
		fadeIn = fmt.Sprintf("lt(n,%d),(n-%d)/%d", b.StartFrame+b.FadeInFrames, b.StartFrame, b.FadeInFrames)
	}
	fadeOut := ""
	if b.FadeOutFrames > 0 {
		fadeOut = fmt.Sprintf("gte(n,%d),(%d-n)/%d", b.StartFrame+b.FadeOutStart(), b.EndFrame(), b.FadeOutFrames)
	}

	switch {
	case fadeIn != "" && fadeOut != "":
		return fmt.Sprintf("if(%s,if(%s,1))", fadeIn, fadeOut)
	case fadeIn != "":
		return fmt.Sprintf("if(%s,1)", fadeIn)
	case fadeOut != "":
		return fmt.Sprintf("if(%s,1)", fadeOut)
	default:
		return ""
	}
}

// mergeLook overlays the style on the variant look and fills unset colours.
func mergeLook(look variant.Look, style Style) variant.Look {
	if style.TextColor != "" {
		look.TextColor = style.TextColor
	}
	if style.BackgroundColor != "" {
		look.BackgroundColor = style.BackgroundColor
	}
	if style.AccentColor != "" {
		look.AccentColor = style.AccentColor
	}
	if style.ClosingText != "" {
		look.ClosingText = style.ClosingText
	}
	if look.TextColor == "" {
		look.TextColor = defaultTextColor
	}
	if look.BackgroundColor == "" {
		look.BackgroundColor = defaultBackgroundColor
	}
	if look.AccentColor == "" {
		look.AccentColor = look.TextColor
	}
	return look
}

func checkColors(look variant.Look) error {
	for _, c := range []struct{ field, value string }{
		{"text_color", look.TextColor},
		{"background_color", look.BackgroundColor},
		{"accent_color", look.AccentColor},
	} {
		if !variant.ValidColor(c.value) {
			return fmt.Errorf("%w: %s %q", variant.ErrInvalidColor, c.field, c.value)
		}
	}
	return nil
}

var (
	optionEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)
	graphEscaper  = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `[`, `\[`, `]`, `\]`, `,`, `\,`, `;`, `\;`)
)

// lavfiValue escapes an option value of a hand-built lavfi source, once for
// the option parser and once for the graph parser. Filter nodes built with
// ffmpeg-go KwArgs are escaped by ffmpeg-go itself.
func lavfiValue(v string) string {
	return graphEscaper.Replace(optionEscaper.Replace(v))
}

// titleText picks the opening card text: explicit style title, then the
// first segment's group metadata.
func titleText(in RenderInput) string {
	if in.Style.Title != "" {
		return in.Style.Title
	}
	if len(in.Segments) == 0 {
		return noContentText
	}
	if g := in.Segments[0].Group; g != nil {
		lines := make([]string, 0, 2)
		switch {
		case g.Title != "":
			lines = append(lines, g.Title)
		case g.Name != "":
			lines = append(lines, g.Name)
		}
		if g.Subtitle != "" {
			lines = append(lines, g.Subtitle)
		}
		return strings.Join(lines, "\n")
	}
	return ""
}

func (r *FFmpegRenderer) writeTextFile(ctx context.Context, dir, name, text string) (string, error) {
	path, err := r.files.SaveTemp(ctx, dir, name, strings.NewReader(text))
	if err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

// charsPerLine estimates how many glyphs fit across width at fontSize.
func charsPerLine(width, fontSize int) int {
	if fontSize <= 0 {
		return 40
	}
	n := width * 9 / 5 / fontSize
	if n < 8 {
		return 8
	}
	return n
}

// wrap breaks text on word boundaries so no line exceeds limit runes,
// unless a single word is longer.
func wrap(text string, limit int) string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len([]rune(line))+1+len([]rune(w)) > limit {
				lines = append(lines, line)
				line = w
				continue
			}
			line += " " + w
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (r *FFmpegRenderer) runFFmpeg(ctx context.Context, args []string) error {
	result, err := r.runner.Run(ctx, r.ffmpegPath, args, RunOptions{})
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: string(result.Stderr),
			Err:    err,
		}
	}
	return nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}

var _ Renderer = (*FFmpegRenderer)(nil)
