package commands

import (
	"context"
	"fmt"

	"github.com/osdpgw/gateway/pkg/config"
	"github.com/osdpgw/gateway/pkg/store/gormstore/migrate"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply PostgreSQL schema migrations",
	Long: `Apply pending PostgreSQL schema migrations via golang-migrate.

SQLite and badger backends self-migrate on open and need no explicit
step; this command only applies to storage.type: postgres.`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}

	if err := migrate.Run(context.Background(), &cfg.Storage.GORM); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Println("Migrations completed successfully")
	return nil
}
