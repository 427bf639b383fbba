package postgres

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver "pgx" for migrations

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/config"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// RunMigrations applies all pending embedded schema migrations.  Migrations
// run over a dedicated short-lived database/sql connection, separate from the
// pgx pool serving requests.
func RunMigrations(cfg config.DatabaseConfig, log logging.Logger) error {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to open migration connection")
	}
	defer db.Close()

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create migration driver")
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to load embedded migrations")
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create migrate instance")
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		version, _, _ := m.Version()
		return errors.Wrap(err, errors.ErrCodeInternal,
			fmt.Sprintf("failed to run migrations (current version: %d)", version))
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		log.Warn("failed to read migration version", logging.Err(err))
	}
	log.Info("database migrations completed",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty),
	)
	return nil
}
