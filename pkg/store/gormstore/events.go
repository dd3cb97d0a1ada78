package gormstore

import (
	"context"
	"time"

	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/pipeline"
)

// cardEventRecord is the GORM row for an appended CardReadEvent. Event
// storage is append-only, so rows have
// no unique business key beyond the autoincrement ID. PluginResults holds
// the pipe-delimited encoding (pipeline.EncodePluginResults),
// so the per-plugin chain survives a round trip through storage.
type cardEventRecord struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	ReaderID      string    `gorm:"index;not null"`
	Timestamp     time.Time `gorm:"index;not null"`
	BitLength     int
	CardNumber    string
	RawBits       string
	Success       bool
	Message       string
	PluginResults string
}

type pinEventRecord struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	ReaderID      string    `gorm:"index;not null"`
	Timestamp     time.Time `gorm:"index;not null"`
	Digits        string
	Reason        string
	Success       bool
	Message       string
	PluginResults string
}

// AppendCardEvent stores a processed card-read event alongside its pipeline
// outcome.
func (s *GORMStore) AppendCardEvent(ctx context.Context, e model.CardReadEvent, outcome model.PipelineOutcome) error {
	row := &cardEventRecord{
		ReaderID:      e.ReaderID,
		Timestamp:     e.Timestamp,
		BitLength:     e.BitLength,
		CardNumber:    e.CardNumber,
		RawBits:       e.RawBits,
		Success:       outcome.Success,
		Message:       outcome.Message,
		PluginResults: pipeline.EncodePluginResults(outcome.PluginResults),
	}
	return create(s.db, ctx, row)
}

// AppendPinEvent stores a completed PIN-read event alongside its pipeline
// outcome.
func (s *GORMStore) AppendPinEvent(ctx context.Context, e model.PinReadEvent, outcome model.PipelineOutcome) error {
	row := &pinEventRecord{
		ReaderID:      e.ReaderID,
		Timestamp:     e.Timestamp,
		Digits:        e.Digits,
		Reason:        string(e.Reason),
		Success:       outcome.Success,
		Message:       outcome.Message,
		PluginResults: pipeline.EncodePluginResults(outcome.PluginResults),
	}
	return create(s.db, ctx, row)
}
