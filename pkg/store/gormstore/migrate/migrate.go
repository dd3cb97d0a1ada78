// Package migrate applies the PostgreSQL schema via golang-migrate, the
// explicit migration path for production deployments that want a
// reviewable schema history in addition to GORM's AutoMigrate (which
// gormstore.New runs on every open, for SQLite and PostgreSQL alike).
package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/osdpgw/gateway/internal/logger"
	"github.com/osdpgw/gateway/pkg/store/gormstore"
	"github.com/osdpgw/gateway/pkg/store/gormstore/migrate/migrations"
)

// Run applies every pending migration against cfg.Postgres. It is a no-op
// (ErrNoChange) once the schema is current; golang-migrate serializes
// concurrent callers via a PostgreSQL advisory lock.
func Run(ctx context.Context, cfg *gormstore.Config) error {
	if cfg.Type != gormstore.DatabaseTypePostgres {
		return fmt.Errorf("migrate: explicit migrations only apply to the postgres backend, got %q", cfg.Type)
	}

	db, err := sql.Open("pgx", cfg.Postgres.DSN())
	if err != nil {
		return fmt.Errorf("migrate: open connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("migrate: ping: %w", err)
	}

	driver, err := migratepg.WithInstance(db, &migratepg.Config{
		MigrationsTable: "schema_migrations",
		DatabaseName:    cfg.Postgres.Database,
	})
	if err != nil {
		return fmt.Errorf("migrate: create postgres driver: %w", err)
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("migrate: create source driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate: create migrate instance: %w", err)
	}

	logger.Info("applying database migrations")
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrate: up: %w", err)
	} else if err == migrate.ErrNoChange {
		logger.Info("database already at latest migration")
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("migrate: version: %w", err)
	}
	if err == nil {
		logger.Info("schema version", "version", version, "dirty", dirty)
		if dirty {
			logger.Warn("database schema is dirty, manual intervention may be required")
		}
	}

	return nil
}
