package cli

import (
	"github.com/spf13/cobra"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/database/postgres"
)

// NewMigrateCmd applies pending schema migrations and exits.  serve and
// worker also migrate on start; this exists for CI and init containers.
func NewMigrateCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			return postgres.RunMigrations(cfg.Database, logger)
		},
	}
}
