package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/maauso/versevideo/internal/job"
	"github.com/maauso/versevideo/internal/timeline"
)

var timelineFlags requestFlags

func newTimelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Resolve narration and print the composed timeline without rendering",
		Args:  cobra.NoArgs,
		RunE:  runTimeline,
	}

	cmd.Flags().StringVar(&timelineFlags.path, "request", "", "Path to the render request JSON")
	cmd.Flags().StringVar(&timelineFlags.variant, "variant", "", "Override the request variant")
	cmd.Flags().IntVar(&timelineFlags.fps, "fps", 0, "Override the frame rate")
	return cmd
}

type timelineJSON struct {
	DurationSeconds float64            `json:"duration_seconds"`
	Timeline        *timeline.Timeline `json:"timeline"`
	Resolutions     []job.Resolution   `json:"resolutions"`
}

func runTimeline(cmd *cobra.Command, _ []string) error {
	req, err := timelineFlags.load()
	if err != nil {
		return err
	}
	ctx, deps, _, err := setup(cmd)
	if err != nil {
		return err
	}

	tl, report, err := deps.RenderService.Preview(ctx, req)
	if err != nil {
		return err
	}

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), timelineJSON{
			DurationSeconds: tl.DurationSeconds(),
			Timeline:        tl,
			Resolutions:     report,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Frames: %d @ %d fps (%.3fs)\n", tl.TotalFrames, tl.FramesPerSecond, tl.DurationSeconds())

	w := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "BLOCK\tSTART\tFRAMES\tFADE\tNARRATION")
	fmt.Fprintf(w, "title\t%d\t%d\t-\t-\n", tl.Title.StartFrame, tl.Title.LengthFrames)
	for _, b := range tl.Segments {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d/%d\t%s\n",
			req.Segments[b.SegmentIndex].ID,
			b.StartFrame,
			b.LengthFrames,
			b.FadeInFrames,
			b.FadeOutFrames,
			narrationSummary(report[b.SegmentIndex]),
		)
	}
	fmt.Fprintf(w, "closing\t%d\t%d\t-\t-\n", tl.Closing.StartFrame, tl.Closing.LengthFrames)
	return w.Flush()
}

func narrationSummary(r job.Resolution) string {
	switch {
	case r.Seconds != nil:
		return fmt.Sprintf("%.3fs", *r.Seconds)
	case r.Error != "":
		return "fallback (" + r.Error + ")"
	default:
		return "fallback"
	}
}
