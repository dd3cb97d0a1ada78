package gormstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/store"
)

var _ store.Repository = (*GORMStore)(nil)

func newTestStore(t *testing.T) *GORMStore {
	t.Helper()
	s, err := New(&Config{
		Type:   DatabaseTypeSQLite,
		SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "gateway.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndLoadReader(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := &model.Reader{
		ID:           uuid.NewString(),
		Name:         "front-door",
		Port:         "/dev/ttyUSB0",
		Baud:         9600,
		Address:      1,
		SecurityMode: model.SecurityClearText,
		Enabled:      true,
	}
	require.NoError(t, s.SaveReader(ctx, r))

	loaded, err := s.LoadReader(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Name, loaded.Name)

	all, err := s.LoadReaders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.DeleteReader(ctx, r.ID))
	_, err = s.LoadReader(ctx, r.ID)
	assert.ErrorIs(t, err, store.ErrReaderNotFound)
}

func TestSaveReaderDuplicateName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r1 := &model.Reader{ID: uuid.NewString(), Name: "lobby", Port: "/dev/ttyUSB0", Baud: 9600, Address: 1}
	require.NoError(t, s.SaveReader(ctx, r1))

	r2 := &model.Reader{ID: uuid.NewString(), Name: "lobby", Port: "/dev/ttyUSB1", Baud: 9600, Address: 2}
	err := s.SaveReader(ctx, r2)
	assert.ErrorIs(t, err, store.ErrDuplicateReader)
}

func TestMappingCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	readerID := uuid.NewString()

	require.NoError(t, s.SetMapping(ctx, &model.PluginMapping{ReaderID: readerID, PluginID: "audit", ExecutionOrder: 1, Enabled: true}))
	require.NoError(t, s.SetMapping(ctx, &model.PluginMapping{ReaderID: readerID, PluginID: "access", ExecutionOrder: 2, Enabled: true}))

	err := s.SetMapping(ctx, &model.PluginMapping{ReaderID: readerID, PluginID: "dup", ExecutionOrder: 1, Enabled: true})
	assert.ErrorIs(t, err, store.ErrDuplicateOrder)

	mappings, err := s.ListMappingsForReader(ctx, readerID)
	require.NoError(t, err)
	require.Len(t, mappings, 2)
	assert.Equal(t, "audit", mappings[0].PluginID)

	require.NoError(t, s.DeleteMapping(ctx, readerID, "audit"))
	err = s.DeleteMapping(ctx, readerID, "audit")
	assert.ErrorIs(t, err, store.ErrMappingNotFound)
}

func TestCopyMappings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	from, to := uuid.NewString(), uuid.NewString()

	require.NoError(t, s.SetMapping(ctx, &model.PluginMapping{ReaderID: from, PluginID: "access", ExecutionOrder: 1, Enabled: true}))
	require.NoError(t, s.CopyMappings(ctx, from, to))

	mappings, err := s.ListMappingsForReader(ctx, to)
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, "access", mappings[0].PluginID)
}

func TestFeedbackDefaultsWhenUnset(t *testing.T) {
	s := newTestStore(t)
	cfg, err := s.LoadFeedback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSuccessFeedback(), cfg.Success)
}

func TestFeedbackSaveAndLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cfg := model.FeedbackConfig{
		Success: model.ReaderFeedback{Type: model.FeedbackSuccess, LEDColor: model.LEDBlue, BeepCount: 2},
		Failure: model.DefaultFailureFeedback(),
	}
	require.NoError(t, s.SaveFeedback(ctx, cfg))

	loaded, err := s.LoadFeedback(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.LEDBlue, loaded.Success.LEDColor)
}

func TestAppendEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.AppendCardEvent(ctx, model.CardReadEvent{
		ReaderID:   "r1",
		Timestamp:  time.Now(),
		BitLength:  26,
		CardNumber: "123456",
	}, model.PipelineOutcome{Success: true, Message: "ok"})
	require.NoError(t, err)

	err = s.AppendPinEvent(ctx, model.PinReadEvent{
		ReaderID:  "r1",
		Timestamp: time.Now(),
		Digits:    "1234",
		Reason:    model.PinSubmitted,
	}, model.PipelineOutcome{Success: true, Message: "ok"})
	require.NoError(t, err)
}

func TestUpdateSecurity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := &model.Reader{ID: uuid.NewString(), Name: "gate", Port: "/dev/ttyUSB0", Baud: 9600, Address: 1, SecurityMode: model.SecurityClearText}
	require.NoError(t, s.SaveReader(ctx, r))

	key := make([]byte, 16)
	require.NoError(t, s.UpdateSecurity(ctx, r.ID, model.SecuritySecure, key))

	loaded, err := s.LoadReader(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SecuritySecure, loaded.SecurityMode)
	assert.Equal(t, key, loaded.SecurityKey)

	err = s.UpdateSecurity(ctx, uuid.NewString(), model.SecuritySecure, key)
	assert.ErrorIs(t, err, store.ErrReaderNotFound)
}

func TestHealthcheck(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Healthcheck(context.Background()))
}
