package bus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/notify"
	"github.com/osdpgw/gateway/pkg/osdp"
	"github.com/osdpgw/gateway/pkg/osdp/simulator"
	"github.com/osdpgw/gateway/pkg/security"
)

type fakeTraceSink struct {
	mu      sync.Mutex
	entries []model.PacketTraceEntry
}

func (f *fakeTraceSink) Capture(readerID, readerName string, entry model.PacketTraceEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ReaderID = readerID
	entry.ReaderName = readerName
	f.entries = append(f.entries, entry)
}

type allowAllPorts struct{}

func (allowAllPorts) Exists(string) bool { return true }

type denyPort struct{ port string }

func (d denyPort) Exists(p string) bool { return p != d.port }

func newTestManager() *Manager {
	return New(Config{
		Codec:       simulator.New(),
		PortChecker: allowAllPorts{},
		Security:    security.NewService(),
		NotifyBus:   notify.NopBus{},
	})
}

func TestAddDeviceRejectsMissingPort(t *testing.T) {
	m := New(Config{
		Codec:       simulator.New(),
		PortChecker: denyPort{port: "COM9"},
		Security:    security.NewService(),
		NotifyBus:   notify.NopBus{},
	})

	err := m.AddDevice(context.Background(), model.Reader{ID: "r1", Port: "COM9", Baud: 9600, Address: 1})
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestAddDeviceRejectsBaudMismatchOnSamePort(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.AddDevice(context.Background(), model.Reader{ID: "r1", Port: "COM3", Baud: 9600, Address: 1}))

	err := m.AddDevice(context.Background(), model.Reader{ID: "r2", Port: "COM3", Baud: 19200, Address: 2})
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestAddDeviceRejectsDuplicateAddressOnSameBus(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.AddDevice(context.Background(), model.Reader{ID: "r1", Port: "COM3", Baud: 9600, Address: 1}))

	err := m.AddDevice(context.Background(), model.Reader{ID: "r2", Port: "COM3", Baud: 9600, Address: 1})
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestAddDeviceAllowsDifferentPortsIndependently(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.AddDevice(context.Background(), model.Reader{ID: "r1", Port: "COM3", Baud: 9600, Address: 1}))
	require.NoError(t, m.AddDevice(context.Background(), model.Reader{ID: "r2", Port: "COM4", Baud: 19200, Address: 1}))

	assert.Len(t, m.Sessions(), 2)
}

func TestRemoveDeviceClosesBusWhenLastDeviceLeaves(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.AddDevice(context.Background(), model.Reader{ID: "r1", Port: "COM3", Baud: 9600, Address: 1}))

	require.NoError(t, m.RemoveDevice(context.Background(), "r1"))
	assert.Empty(t, m.Sessions())

	err := m.RemoveDevice(context.Background(), "r1")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestStopDetachesAllSessions(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.AddDevice(context.Background(), model.Reader{ID: "r1", Port: "COM3", Baud: 9600, Address: 1}))
	require.NoError(t, m.AddDevice(context.Background(), model.Reader{ID: "r2", Port: "COM3", Baud: 9600, Address: 2}))

	require.NoError(t, m.Stop(context.Background()))
	assert.Empty(t, m.Sessions())

	// Stop is idempotent.
	require.NoError(t, m.Stop(context.Background()))
}

func TestAddDeviceAfterStopReturnsManagerClosed(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.Stop(context.Background()))

	err := m.AddDevice(context.Background(), model.Reader{ID: "r1", Port: "COM3", Baud: 9600, Address: 1})
	assert.ErrorIs(t, err, ErrManagerClosed)
}

func TestFrameEventsForwardToTraceSink(t *testing.T) {
	sink := &fakeTraceSink{}
	codec := simulator.New()
	m := New(Config{
		Codec:       codec,
		PortChecker: allowAllPorts{},
		Security:    security.NewService(),
		NotifyBus:   notify.NopBus{},
		TraceSink:   sink,
	})
	require.NoError(t, m.AddDevice(context.Background(), model.Reader{ID: "r1", Name: "front-door", Port: "COM3", Baud: 9600, Address: 1}))

	handle := osdp.BusHandle("COM3:9600")
	codec.InjectFrame(handle, 1, osdp.Event{
		Direction:      osdp.FrameIncoming,
		Raw:            []byte{0xFF, 0x01, 0x08, 0x00, 0x61, 0x62},
		CommandOrReply: model.CommandPoll,
		Sequence:       1,
		Valid:          true,
	})

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.entries) == 1
	}, time.Second, 10*time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, "r1", sink.entries[0].ReaderID)
	assert.Equal(t, "front-door", sink.entries[0].ReaderName)
	assert.Equal(t, model.TraceIncoming, sink.entries[0].Direction)
	assert.Equal(t, model.CommandPoll, sink.entries[0].CommandOrReply)
}
