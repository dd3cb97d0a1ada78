package plugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osdpgw/gateway/pkg/model"
)

type fakeMappings struct {
	byReader map[string][]*model.PluginMapping
}

func (f *fakeMappings) ListMappingsForReader(_ context.Context, readerID string) ([]*model.PluginMapping, error) {
	return f.byReader[readerID], nil
}

type stubPlugin struct{ id, name string }

func (s *stubPlugin) ID() string                          { return s.id }
func (s *stubPlugin) Name() string                        { return s.name }
func (s *stubPlugin) Version() string                      { return "1.0.0" }
func (s *stubPlugin) Description() string                  { return "test stub" }
func (s *stubPlugin) Initialize(_ context.Context) error   { return nil }
func (s *stubPlugin) Shutdown(_ context.Context) error     { return nil }

func TestGetPluginsForReaderOrdersByExecutionOrder(t *testing.T) {
	mappings := &fakeMappings{byReader: map[string][]*model.PluginMapping{
		"r1": {
			{ReaderID: "r1", PluginID: "b", ExecutionOrder: 2, Enabled: true},
			{ReaderID: "r1", PluginID: "a", ExecutionOrder: 1, Enabled: true},
		},
	}}
	h := New(t.TempDir(), mappings)
	h.Register(&stubPlugin{id: "a", name: "Alpha"})
	h.Register(&stubPlugin{id: "b", name: "Beta"})

	chain, err := h.GetPluginsForReader(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, "a", chain[0].ID())
	assert.Equal(t, "b", chain[1].ID())
}

func TestGetPluginsForReaderSkipsDisabledAndMissing(t *testing.T) {
	mappings := &fakeMappings{byReader: map[string][]*model.PluginMapping{
		"r1": {
			{ReaderID: "r1", PluginID: "a", ExecutionOrder: 1, Enabled: false},
			{ReaderID: "r1", PluginID: "missing", ExecutionOrder: 2, Enabled: true},
			{ReaderID: "r1", PluginID: "b", ExecutionOrder: 3, Enabled: true},
		},
	}}
	h := New(t.TempDir(), mappings)
	h.Register(&stubPlugin{id: "a", name: "Alpha"})
	h.Register(&stubPlugin{id: "b", name: "Beta"})

	chain, err := h.GetPluginsForReader(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, chain, 1)
	assert.Equal(t, "b", chain[0].ID())
}

func TestUnloadRemovesInstance(t *testing.T) {
	h := New(t.TempDir(), &fakeMappings{byReader: map[string][]*model.PluginMapping{}})
	h.Register(&stubPlugin{id: "a", name: "Alpha"})
	_, ok := h.Get("a")
	require.True(t, ok)

	h.Unload(context.Background(), "a")
	_, ok = h.Get("a")
	assert.False(t, ok)
}

func TestScanMissingDirectoryIsNotAnError(t *testing.T) {
	h := New("/nonexistent/osdpgw-plugins", &fakeMappings{byReader: map[string][]*model.PluginMapping{}})
	assert.NoError(t, h.Scan(context.Background()))
}
