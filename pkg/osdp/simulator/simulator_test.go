package simulator

import (
	"context"
	"testing"

	"github.com/osdpgw/gateway/pkg/osdp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBusSameBaudIsIdempotent(t *testing.T) {
	c := New()
	h1, err := c.OpenBus(context.Background(), "COM3", 9600)
	require.NoError(t, err)
	h2, err := c.OpenBus(context.Background(), "COM3", 9600)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestOpenBusBaudConflict(t *testing.T) {
	c := New()
	_, err := c.OpenBus(context.Background(), "COM3", 9600)
	require.NoError(t, err)
	_, err = c.OpenBus(context.Background(), "COM3", 19200)
	assert.Error(t, err)
}

func TestRegisterDeviceDuplicateAddress(t *testing.T) {
	c := New()
	h, _ := c.OpenBus(context.Background(), "COM3", 9600)
	require.NoError(t, c.RegisterDevice(h, 1, osdp.DeviceOptions{}))
	err := c.RegisterDevice(h, 1, osdp.DeviceOptions{})
	assert.ErrorIs(t, err, osdp.ErrAddressInUse)
}

func TestOnlineOfflineEvents(t *testing.T) {
	c := New()
	h, _ := c.OpenBus(context.Background(), "COM3", 9600)
	require.NoError(t, c.RegisterDevice(h, 1, osdp.DeviceOptions{}))

	events := c.Events(h)
	c.GoOnline(h, 1)

	ev := <-events
	assert.Equal(t, osdp.EventStatusChanged, ev.Kind)
	assert.True(t, ev.Online)
	assert.True(t, c.IsOnline(h, 1))
}

func TestCloseBusClosesEventChannel(t *testing.T) {
	c := New()
	h, _ := c.OpenBus(context.Background(), "COM3", 9600)
	events := c.Events(h)
	require.NoError(t, c.CloseBus(h))

	_, ok := <-events
	assert.False(t, ok)
}
