package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/config"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// NewRootCommand creates the root command with global flags and subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "intelctl",
		Short:   "POI intelligence platform control tool",
		Long:    "intelctl operates the person-of-interest entity resolution platform:\nit serves the intake API, runs the candidate worker, and drives the\nsource-table batch refresh.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: search ./configs, env)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "override configured log level (debug, info, warn, error)")

	cmd.AddCommand(
		NewServeCmd(opts),
		NewWorkerCmd(opts),
		NewRefreshCmd(opts),
		NewResolveCmd(opts),
		NewMigrateCmd(opts),
	)
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves configuration from the --config flag, falling back to
// environment variables when no file is given.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	return cfg, nil
}

// newLogger builds the process logger from config.
func newLogger(cfg *config.Config) (logging.Logger, error) {
	format := cfg.Log.Format
	if format == "text" {
		format = "console"
	}
	output := cfg.Log.Output
	if output == "" {
		output = "stdout"
	}
	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       cfg.Log.Level,
		Format:      format,
		OutputPaths: []string{output},
	})
	if err != nil {
		return nil, err
	}
	logging.SetDefault(logger)
	return logger, nil
}
