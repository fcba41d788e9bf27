package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dimenl/slicerd/internal/engine"
	"github.com/dimenl/slicerd/internal/geometry"
	"github.com/dimenl/slicerd/internal/jobstore"
	"github.com/dimenl/slicerd/internal/service"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	ConfigFile   string
	Listen       string
	ResourcesDir string
	JobDB        string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the slicing HTTP service",
		Long: `Start the slicing HTTP service.

The service accepts multipart uploads of one model file plus an optional
JSON config part, slices with the configured presets and parameters, and
returns statistics plus the base64-encoded output.

Example:
  slicerd serve --listen :8080 --resources /app/resources
  slicerd serve --config /etc/slicerd.yaml --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "path to YAML config file")
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "bind address (overrides config)")
	cmd.Flags().StringVar(&opts.ResourcesDir, "resources", "", "preset resources directory (overrides config)")
	cmd.Flags().StringVar(&opts.JobDB, "job-db", "", "SQLite job history path (overrides config)")

	return cmd
}

func runServe(opts *ServeOptions) error {
	cfg := service.DefaultConfig()
	if opts.ConfigFile != "" {
		loaded, err := service.LoadConfig(opts.ConfigFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}
	if opts.ResourcesDir != "" {
		cfg.ResourcesDir = opts.ResourcesDir
	}
	if opts.JobDB != "" {
		cfg.JobDB = opts.JobDB
	}

	handlers := service.NewHandlers(cfg, engine.Default(), formatLoaders())

	if cfg.JobDB != "" {
		jobs, err := jobstore.Open(cfg.JobDB)
		if err != nil {
			return err
		}
		defer jobs.Close()
		handlers.WithJobStore(jobs)
		slog.Info("job history enabled", "db", cfg.JobDB)
	}

	return handlers.Run()
}

// formatLoaders returns the loader registry for the process. Native
// format bindings register themselves in geometry.DefaultRegistry at
// init; without them the registry is empty and load_model reports
// model-load failures.
func formatLoaders() *geometry.Registry {
	return geometry.DefaultRegistry()
}
