// Package cliutil opens the storage backend for the reader, mapping,
// feedback, and trace admin subcommands. These commands edit persisted
// configuration directly; they do not require a running gateway process.
package cliutil

import (
	"context"
	"fmt"

	"github.com/osdpgw/gateway/pkg/config"
	"github.com/osdpgw/gateway/pkg/gateway"
	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/store"
)

// OpenRepo loads the configuration at configFile and opens the repository
// it names, applying the same encryption-at-rest wrapping the daemon uses.
func OpenRepo(configFile string) (*config.Config, store.Repository, error) {
	cfg, err := config.MustLoad(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	repo, err := gateway.OpenRepository(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open repository: %w", err)
	}
	return cfg, repo, nil
}

// OfflineBus satisfies configsvc.BusController for commands that edit
// reader configuration while no gateway process holds the serial ports.
// Device validation (port existence, baud, address uniqueness) happens
// when the daemon next calls Start, not here.
type OfflineBus struct{}

// AddDevice is a no-op; the daemon registers the device at its next start.
func (OfflineBus) AddDevice(ctx context.Context, r model.Reader) error { return nil }

// RemoveDevice is a no-op; no live bus session exists to detach from.
func (OfflineBus) RemoveDevice(ctx context.Context, readerID string) error { return nil }
