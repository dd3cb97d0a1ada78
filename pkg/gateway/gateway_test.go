package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osdpgw/gateway/pkg/config"
	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/osdp"
	"github.com/osdpgw/gateway/pkg/osdp/simulator"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.GetDefaultConfig()
	cfg.Storage.Type = "memory"
	cfg.PluginDir = t.TempDir()
	return cfg
}

func TestNewWiresEveryCollaborator(t *testing.T) {
	sim := simulator.New()

	g, err := New(context.Background(), testConfig(t), sim)
	require.NoError(t, err)

	assert.NotNil(t, g.Repo)
	assert.NotNil(t, g.Notify)
	assert.NotNil(t, g.Trace)
	assert.NotNil(t, g.Plugins)
	assert.NotNil(t, g.Buses)
	assert.NotNil(t, g.Pins)
	assert.NotNil(t, g.Readers)
	assert.NotNil(t, g.Mappings)
	assert.NotNil(t, g.Feedback)
	assert.NotNil(t, g.OSDPSecurity)
	assert.NotNil(t, g.SecurityUpdate)
}

func TestStartBringsPersistedReadersOnlineAndStopDrains(t *testing.T) {
	sim := simulator.New()

	ctx := context.Background()
	g, err := New(ctx, testConfig(t), sim)
	require.NoError(t, err)

	reader := &model.Reader{ID: "r1", Name: "front-door", Port: "COM3", Baud: 9600, Address: 1, Enabled: true}
	require.NoError(t, g.Repo.SaveReader(ctx, reader))

	require.NoError(t, g.Start(ctx))
	assert.Len(t, g.Buses.Sessions(), 1)

	sub := g.Notifications("test-observer")
	defer g.Notify.Unsubscribe("test-observer")

	bits, err := osdp.EncodeCardNumber("12345678", 26)
	require.NoError(t, err)
	sim.InjectCardRead(osdp.BusHandle("COM3:9600"), 1, bits, 26)

	select {
	case n := <-sub.Notifications():
		assert.Equal(t, model.NotifyCardEvent, n.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for card event notification")
	}

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, g.Stop(stopCtx))
	assert.Empty(t, g.Buses.Sessions())
}

func TestStartSkipsDisabledReaders(t *testing.T) {
	sim := simulator.New()

	ctx := context.Background()
	g, err := New(ctx, testConfig(t), sim)
	require.NoError(t, err)

	require.NoError(t, g.Repo.SaveReader(ctx, &model.Reader{ID: "r1", Name: "disabled", Port: "COM3", Baud: 9600, Address: 1, Enabled: false}))

	require.NoError(t, g.Start(ctx))
	assert.Empty(t, g.Buses.Sessions())

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, g.Stop(stopCtx))
}
