package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	renderFlags  requestFlags
	renderOutput string
	renderForce  bool
)

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a request to a video file",
		Args:  cobra.NoArgs,
		RunE:  runRender,
	}

	cmd.Flags().StringVar(&renderFlags.path, "request", "", "Path to the render request JSON")
	cmd.Flags().StringVar(&renderFlags.variant, "variant", "", "Override the request variant")
	cmd.Flags().IntVar(&renderFlags.fps, "fps", 0, "Override the frame rate")
	cmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output video path (default: suggested filename)")
	cmd.Flags().BoolVar(&renderForce, "force", false, "Overwrite an existing output file")
	return cmd
}

func runRender(cmd *cobra.Command, _ []string) error {
	req, err := renderFlags.load()
	if err != nil {
		return err
	}
	ctx, deps, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	artifact, err := deps.RenderService.Render(ctx, req)
	if err != nil {
		return err
	}
	defer artifact.Release()

	output := renderOutput
	if output == "" {
		output = artifact.Filename
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !renderForce {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(output, flags, 0o644) // #nosec G304 - path is chosen by the operator
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	if err := deps.RenderService.Deliver(ctx, artifact, f); err != nil {
		_ = f.Close()
		_ = os.Remove(output)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	logger.Info("render written",
		slog.String("job_id", artifact.ID),
		slog.String("output", output),
		slog.Int64("bytes", artifact.Size),
	)
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"id":           artifact.ID,
			"output":       output,
			"content_type": artifact.ContentType,
			"bytes":        artifact.Size,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}
