package badgerstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/store"
)

var _ store.Repository = (*Store)(nil)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestReaderCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := &model.Reader{ID: "r1", Name: "door", Port: "/dev/ttyUSB0", Baud: 9600, Address: 1}
	require.NoError(t, s.SaveReader(ctx, r))

	loaded, err := s.LoadReader(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "door", loaded.Name)

	dup := &model.Reader{ID: "r2", Name: "door", Port: "/dev/ttyUSB1", Baud: 9600, Address: 2}
	assert.ErrorIs(t, s.SaveReader(ctx, dup), store.ErrDuplicateReader)

	require.NoError(t, s.DeleteReader(ctx, "r1"))
	_, err = s.LoadReader(ctx, "r1")
	assert.ErrorIs(t, err, store.ErrReaderNotFound)
}

func TestMappingOrderingAndConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetMapping(ctx, &model.PluginMapping{ReaderID: "r1", PluginID: "b", ExecutionOrder: 2}))
	require.NoError(t, s.SetMapping(ctx, &model.PluginMapping{ReaderID: "r1", PluginID: "a", ExecutionOrder: 1}))

	err := s.SetMapping(ctx, &model.PluginMapping{ReaderID: "r1", PluginID: "c", ExecutionOrder: 1})
	assert.ErrorIs(t, err, store.ErrDuplicateOrder)

	mappings, err := s.ListMappingsForReader(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, mappings, 2)
	assert.Equal(t, "a", mappings[0].PluginID)
}

func TestFeedbackDefaultsAndSave(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cfg, err := s.LoadFeedback(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSuccessFeedback(), cfg.Success)

	cfg.Success.BeepCount = 9
	require.NoError(t, s.SaveFeedback(ctx, cfg))

	loaded, err := s.LoadFeedback(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, loaded.Success.BeepCount)
}

func TestAppendEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendCardEvent(ctx, model.CardReadEvent{ReaderID: "r1"}, model.PipelineOutcome{Success: true}))
	require.NoError(t, s.AppendPinEvent(ctx, model.PinReadEvent{ReaderID: "r1"}, model.PipelineOutcome{Success: true}))
}

func TestUpdateSecurity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := &model.Reader{ID: "r1", Name: "gate", Port: "/dev/ttyUSB0", Baud: 9600, Address: 1}
	require.NoError(t, s.SaveReader(ctx, r))

	key := make([]byte, 16)
	require.NoError(t, s.UpdateSecurity(ctx, "r1", model.SecuritySecure, key))

	loaded, err := s.LoadReader(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, model.SecuritySecure, loaded.SecurityMode)

	assert.ErrorIs(t, s.UpdateSecurity(ctx, "missing", model.SecuritySecure, key), store.ErrReaderNotFound)
}
