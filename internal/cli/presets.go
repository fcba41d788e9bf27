package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dimenl/slicerd/internal/preset"
)

// PresetsOptions holds flags for the presets command.
type PresetsOptions struct {
	*RootOptions
	ResourcesDir string
	Category     string
}

// NewPresetsCommand creates the presets command.
func NewPresetsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PresetsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List the presets in the profile catalog",
		Long: `List the presets in the profile catalog.

Example:
  slicerd presets --resources /app/resources
  slicerd presets --resources /app/resources --category filament --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPresets(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ResourcesDir, "resources", "", "preset resources directory")
	cmd.Flags().StringVar(&opts.Category, "category", "", "restrict to one category (machine|filament|process)")

	return cmd
}

type presetListing struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

func runPresets(cmd *cobra.Command, opts *PresetsOptions) error {
	catalog, err := preset.Load(opts.ResourcesDir)
	if err != nil {
		return err
	}

	var listings []presetListing
	for _, cat := range preset.Categories {
		if opts.Category != "" && string(cat) != opts.Category {
			continue
		}
		for _, p := range catalog.Entries(cat) {
			listings = append(listings, presetListing{Name: p.Name, Category: string(p.Category)})
		}
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(listings)
	}
	for _, l := range listings {
		fmt.Fprintf(out, "%-10s %s\n", l.Category, l.Name)
	}
	return nil
}
