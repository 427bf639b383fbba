package cli

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewRefreshCmd runs one batch refresh over every source table and prints
// the report.
func NewRefreshCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Re-scan all source tables and resolve their candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if cfg.Refresh.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.Refresh.Timeout)
				defer cancel()
			}

			app, err := buildApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			report, err := app.Refresher.RefreshAll(ctx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}
