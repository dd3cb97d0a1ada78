// Package configsvc implements the Configuration & Security Services (C7):
// application-level CRUD and policy enforcement in front of the
// persistence repository, consumed by the CLI/admin surface.
package configsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/osdpgw/gateway/internal/logger"
	"github.com/osdpgw/gateway/pkg/bus"
	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/notify"
	"github.com/osdpgw/gateway/pkg/store"
)

// BusController is the subset of bus.Manager a reader's lifecycle needs to
// drive when its configuration changes.
type BusController interface {
	AddDevice(ctx context.Context, reader model.Reader) error
	RemoveDevice(ctx context.Context, readerID string) error
}

var _ BusController = (*bus.Manager)(nil)

// ReaderConfigService provides reader CRUD, enforcing the bus invariants of
// the bus invariants (baud coherency, address uniqueness, port existence)
// by delegating online changes through the Bus Manager.
type ReaderConfigService struct {
	store  store.ReaderStore
	buses  BusController
	notify notify.Bus
}

// NewReaderConfigService constructs a ReaderConfigService.
func NewReaderConfigService(s store.ReaderStore, b BusController) *ReaderConfigService {
	return &ReaderConfigService{store: s, buses: b}
}

// WithNotify broadcasts a reader-configuration-change notification after
// every successful create, update, or delete. Offline admin commands skip
// this; the daemon wires its live bus in.
func (s *ReaderConfigService) WithNotify(b notify.Bus) *ReaderConfigService {
	s.notify = b
	return s
}

func (s *ReaderConfigService) configChanged(ctx context.Context, readerID, action string) {
	if s.notify == nil {
		return
	}
	s.notify.Broadcast(ctx, model.Notification{
		Kind:      model.NotifyReaderConfig,
		Timestamp: time.Now(),
		Payload:   model.ReaderConfigChange{ReaderID: readerID, Action: action},
	})
}

// CreateReader persists a new reader and, if enabled, registers it with the
// Bus Manager. AddDevice's synchronous validation (port existence, baud
// match, address uniqueness) rejects the call before anything is saved.
func (s *ReaderConfigService) CreateReader(ctx context.Context, r model.Reader) (*model.Reader, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Address == 0 {
		r.Address = model.DefaultReaderAddress
	}
	if r.SecurityMode == "" {
		r.SecurityMode = model.SecurityClearText
	}
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now

	if r.Enabled {
		if err := s.buses.AddDevice(ctx, r); err != nil {
			return nil, fmt.Errorf("configsvc: register reader: %w", err)
		}
	}
	if err := s.store.SaveReader(ctx, &r); err != nil {
		if r.Enabled {
			if rmErr := s.buses.RemoveDevice(ctx, r.ID); rmErr != nil {
				logger.Warn("configsvc: rollback device registration failed", logger.ReaderID(r.ID), logger.Err(rmErr))
			}
		}
		return nil, fmt.Errorf("configsvc: save reader: %w", err)
	}
	s.configChanged(ctx, r.ID, "create")
	return &r, nil
}

// UpdateReader replaces a reader's configuration. Changes affecting the bus
// (port, baud, address, enabled) are re-applied by detaching and
// re-registering the device so the Bus Manager's invariants are
// re-validated against the new values.
func (s *ReaderConfigService) UpdateReader(ctx context.Context, r model.Reader) (*model.Reader, error) {
	existing, err := s.store.LoadReader(ctx, r.ID)
	if err != nil {
		return nil, fmt.Errorf("configsvc: load reader: %w", err)
	}
	r.CreatedAt = existing.CreatedAt
	r.UpdatedAt = time.Now()

	if existing.Enabled {
		if err := s.buses.RemoveDevice(ctx, existing.ID); err != nil {
			logger.Warn("configsvc: detach reader before update failed", logger.ReaderID(existing.ID), logger.Err(err))
		}
	}
	if r.Enabled {
		if err := s.buses.AddDevice(ctx, r); err != nil {
			return nil, fmt.Errorf("configsvc: re-register reader: %w", err)
		}
	}
	if err := s.store.SaveReader(ctx, &r); err != nil {
		return nil, fmt.Errorf("configsvc: save reader: %w", err)
	}
	s.configChanged(ctx, r.ID, "update")
	return &r, nil
}

// DeleteReader detaches the reader from its bus (if attached) and removes
// its configuration.
func (s *ReaderConfigService) DeleteReader(ctx context.Context, id string) error {
	if err := s.buses.RemoveDevice(ctx, id); err != nil && err != bus.ErrDeviceNotFound {
		logger.Warn("configsvc: detach reader before delete failed", logger.ReaderID(id), logger.Err(err))
	}
	if err := s.store.DeleteReader(ctx, id); err != nil {
		return fmt.Errorf("configsvc: delete reader: %w", err)
	}
	s.configChanged(ctx, id, "delete")
	return nil
}

// GetReader loads a single reader by id.
func (s *ReaderConfigService) GetReader(ctx context.Context, id string) (*model.Reader, error) {
	r, err := s.store.LoadReader(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("configsvc: load reader: %w", err)
	}
	return r, nil
}

// ListReaders returns every configured reader.
func (s *ReaderConfigService) ListReaders(ctx context.Context) ([]*model.Reader, error) {
	readers, err := s.store.LoadReaders(ctx)
	if err != nil {
		return nil, fmt.Errorf("configsvc: list readers: %w", err)
	}
	return readers, nil
}
