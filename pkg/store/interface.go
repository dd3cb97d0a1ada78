// Package store defines the persistence repository the core requires:
// reader CRUD, plugin mapping CRUD, feedback configuration, append-only
// event logging, and secure-channel key updates. Three concrete backends
// are provided: gormstore (PostgreSQL/SQLite via GORM, production),
// badgerstore (embedded key-value), and memstore (tests).
package store

import (
	"context"

	"github.com/osdpgw/gateway/pkg/model"
)

// ReaderStore provides reader configuration CRUD.
type ReaderStore interface {
	SaveReader(ctx context.Context, r *model.Reader) error
	LoadReaders(ctx context.Context) ([]*model.Reader, error)
	LoadReader(ctx context.Context, id string) (*model.Reader, error)
	DeleteReader(ctx context.Context, id string) error
}

// MappingStore provides plugin mapping CRUD, queryable by reader or plugin.
type MappingStore interface {
	ListMappingsForReader(ctx context.Context, readerID string) ([]*model.PluginMapping, error)
	ListReadersForPlugin(ctx context.Context, pluginID string) ([]*model.PluginMapping, error)
	SetMapping(ctx context.Context, m *model.PluginMapping) error
	DeleteMapping(ctx context.Context, readerID, pluginID string) error
	CopyMappings(ctx context.Context, fromReaderID, toReaderID string) error
}

// FeedbackStore provides the singleton feedback configuration record.
type FeedbackStore interface {
	SaveFeedback(ctx context.Context, cfg model.FeedbackConfig) error
	LoadFeedback(ctx context.Context) (model.FeedbackConfig, error)
}

// EventStore appends immutable card/PIN events. Idempotence is not
// required.
type EventStore interface {
	AppendCardEvent(ctx context.Context, e model.CardReadEvent, outcome model.PipelineOutcome) error
	AppendPinEvent(ctx context.Context, e model.PinReadEvent, outcome model.PipelineOutcome) error
}

// SecurityStore atomically updates a reader's security mode and key,
// used after a successful secure-channel installation.
type SecurityStore interface {
	UpdateSecurity(ctx context.Context, readerID string, mode model.SecurityMode, key []byte) error
}

// HealthStore provides store health check and lifecycle operations.
type HealthStore interface {
	Healthcheck(ctx context.Context) error
	Close() error
}

// Repository is the composite persistence interface the gateway owner
// depends on. Individual services (Reader Configuration Service, Mapping
// Service, ...) accept only the narrowest sub-interface they need.
type Repository interface {
	ReaderStore
	MappingStore
	FeedbackStore
	EventStore
	SecurityStore
	HealthStore
}
