// Package cli implements versectl, the offline front end of the render
// service. It runs the same pipeline as the HTTP server with the output
// file as the delivery sink.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/maauso/versevideo/internal/bootstrap"
	"github.com/maauso/versevideo/internal/config"
)

var (
	envFile    string
	outputJSON bool
)

// Execute runs the root cobra command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "versectl",
		Short:         "Render verse videos without the HTTP server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file read before the environment (missing file is ignored)")
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")

	cmd.AddCommand(newVariantsCmd())
	cmd.AddCommand(newTimelineCmd())
	cmd.AddCommand(newRenderCmd())
	return cmd
}

// loadConfig reads configuration from the environment, falling back to the
// values of the dotenv file.
func loadConfig() (*config.Config, error) {
	fileVars := map[string]string{}
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVars = vars
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		}
	}

	return config.LoadWith(envconfig.MultiLookuper(
		envconfig.OsLookuper(),
		envconfig.MapLookuper(fileVars),
	))
}

// setup loads configuration and wires the service. Logs go to stderr so
// command output stays clean.
func setup(cmd *cobra.Command) (context.Context, *bootstrap.Dependencies, *slog.Logger, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := cfg.LoggerTo(cmd.ErrOrStderr())

	deps, err := bootstrap.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return ctx, deps, logger, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
