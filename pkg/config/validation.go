package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/osdpgw/gateway/pkg/store/gormstore"
)

var validate = validator.New()

// Validate checks cfg against its `validate` struct tags and the
// backend-specific rules gormstore.Config.Validate already encodes.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("struct validation: %w", err)
	}

	if cfg.Storage.Type == string(gormstore.DatabaseTypeSQLite) || cfg.Storage.Type == string(gormstore.DatabaseTypePostgres) {
		gormCfg := cfg.Storage.GORM
		gormCfg.Type = gormstore.DatabaseType(cfg.Storage.Type)
		if err := gormCfg.Validate(); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	}
	if cfg.Storage.Type == "badger" && cfg.Storage.BadgerDir == "" {
		return fmt.Errorf("storage: badger_dir is required when storage.type is badger")
	}

	return nil
}
