package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/store"
)

var _ store.Repository = (*Store)(nil)

func TestReaderCRUD(t *testing.T) {
	s := New()
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

func TestMappingOrdering(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.SetMapping(ctx, &model.PluginMapping{ReaderID: "r1", PluginID: "b", ExecutionOrder: 2}))
	require.NoError(t, s.SetMapping(ctx, &model.PluginMapping{ReaderID: "r1", PluginID: "a", ExecutionOrder: 1}))

	mappings, err := s.ListMappingsForReader(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, mappings, 2)
	assert.Equal(t, "a", mappings[0].PluginID)
	assert.Equal(t, "b", mappings[1].PluginID)
}

func TestEventsAndFeedback(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.AppendCardEvent(ctx, model.CardReadEvent{ReaderID: "r1"}, model.PipelineOutcome{Success: true}))
	assert.Len(t, s.CardEvents(), 1)

	cfg, err := s.LoadFeedback(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSuccessFeedback(), cfg.Success)
}

func TestHealthcheckAfterClose(t *testing.T) {
	s := New()
	require.NoError(t, s.Healthcheck(context.Background()))
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Healthcheck(context.Background()), ErrClosed)
}
