package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dimenl/slicerd/internal/engine"
	"github.com/dimenl/slicerd/internal/slicer"
)

// SliceOptions holds flags for the slice command.
type SliceOptions struct {
	*RootOptions
	ResourcesDir string
	Printer      string
	Filament     string
	Process      string
	Params       []string
}

// NewSliceCommand creates the slice command.
func NewSliceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SliceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "slice <model> <output>",
		Short: "Slice one model file and write the result",
		Long: `Slice one model file and write the result.

Loads the model, applies the requested presets and parameter overrides,
processes, exports to the output path, and prints the statistics JSON
on stdout.

Example:
  slicerd slice benchy.stl benchy.gcode --resources /app/resources
  slicerd slice part.3mf part.gcode --printer "Bambu Lab A1" --set layer_height=0.28`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSlice(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.ResourcesDir, "resources", "", "preset resources directory")
	cmd.Flags().StringVar(&opts.Printer, "printer", "", "printer preset name")
	cmd.Flags().StringVar(&opts.Filament, "filament", "", "filament preset name")
	cmd.Flags().StringVar(&opts.Process, "process", "", "process preset name")
	cmd.Flags().StringArrayVar(&opts.Params, "set", nil, "config override as key=value (repeatable)")

	return cmd
}

func runSlice(cmd *cobra.Command, opts *SliceOptions, modelPath, outputPath string) error {
	overrides := make([][2]string, 0, len(opts.Params))
	for _, p := range opts.Params {
		key, value, ok := strings.Cut(p, "=")
		if !ok {
			return fmt.Errorf("invalid --set %q: expected key=value", p)
		}
		overrides = append(overrides, [2]string{key, value})
	}

	session := slicer.New(slicer.Options{
		Engine:       engine.Default(),
		Loaders:      formatLoaders(),
		ResourcesDir: opts.ResourcesDir,
	})

	if err := session.LoadModel(modelPath); err != nil {
		return err
	}
	if opts.Printer != "" || opts.Filament != "" || opts.Process != "" {
		if err := session.LoadPreset(opts.Printer, opts.Filament, opts.Process); err != nil {
			return err
		}
	}
	for _, kv := range overrides {
		if err := session.SetConfigParam(kv[0], kv[1]); err != nil {
			return err
		}
	}
	if err := session.SliceAndExport(outputPath); err != nil {
		return err
	}

	stats, err := session.StatsJSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), stats)
	return nil
}
