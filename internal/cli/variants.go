package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newVariantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "variants",
		Short: "List the registered visual variants",
		Args:  cobra.NoArgs,
		RunE:  runVariants,
	}
}

func runVariants(cmd *cobra.Command, _ []string) error {
	_, deps, _, err := setup(cmd)
	if err != nil {
		return err
	}

	variants := deps.Variants.List()
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), variants)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCOMPOSITION\tFPS\tSIZE\tTITLE\tCLOSING\tFALLBACK")
	for _, v := range variants {
		fmt.Fprintf(w, "%s\t%s\t%d\t%dx%d\t%gs\t%gs\t%gs\n",
			v.Name,
			v.CompositionID,
			v.Defaults.FramesPerSecond,
			v.Look.Width,
			v.Look.Height,
			v.Defaults.TitleSeconds,
			v.Defaults.ClosingSeconds,
			v.Defaults.FallbackSegmentSeconds,
		)
	}
	return w.Flush()
}
