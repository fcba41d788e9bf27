package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dimenl/slicerd/internal/engine"
	"github.com/dimenl/slicerd/internal/slicer"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the service and engine versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				enc := json.NewEncoder(out)
				return enc.Encode(map[string]string{
					"version":        slicer.Version,
					"engine_version": engine.Default().Version(),
				})
			}
			fmt.Fprintf(out, "slicerd %s (engine %s)\n", slicer.Version, engine.Default().Version())
			return nil
		},
	}
}
