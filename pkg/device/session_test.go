package device

import (
	"context"
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

type fakeSecUpdater struct {
	mu    sync.Mutex
	calls int
	mode  model.SecurityMode
	key   []byte
	done  chan struct{}
}

func newFakeSecUpdater() *fakeSecUpdater {
	return &fakeSecUpdater{done: make(chan struct{}, 1)}
}

func (f *fakeSecUpdater) UpdateSecurity(_ context.Context, _ string, mode model.SecurityMode, key []byte) error {
	f.mu.Lock()
	f.calls++
	f.mode = mode
	f.key = key
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func newTestSession(t *testing.T, reader model.Reader, onCard CardReadFunc, onPin PinDigitFunc) (*Session, *simulator.Codec, osdp.BusHandle, *fakeSecUpdater) {
	t.Helper()
	codec := simulator.New()
	bus, err := codec.OpenBus(context.Background(), reader.Port, reader.Baud)
	require.NoError(t, err)
	require.NoError(t, codec.RegisterDevice(bus, reader.Address, osdp.DeviceOptions{}))

	secUpdater := newFakeSecUpdater()
	sess := New(Config{
		Reader:     reader,
		Codec:      codec,
		Bus:        bus,
		Security:   security.NewService(),
		SecUpdater: secUpdater,
		NotifyBus:  notify.NopBus{},
		OnCardRead: onCard,
		OnPinDigit: onPin,
	})
	sess.MarkRegistered()
	return sess, codec, bus, secUpdater
}

func TestCardReadDecodesNumber(t *testing.T) {
	var got model.CardReadEvent
	reader := model.Reader{ID: "r1", Port: "COM3", Baud: 9600, Address: 1}
	sess, codec, bus, _ := newTestSession(t, reader, func(e model.CardReadEvent) { got = e }, nil)

	bits, err := osdp.EncodeCardNumber("12345678", 26)
	require.NoError(t, err)
	codec.InjectCardRead(bus, 1, bits, 26)

	ev := <-codec.Events(bus)
	sess.HandleEvent(context.Background(), ev)

	assert.Equal(t, "12345678", got.CardNumber)
	assert.Equal(t, 26, got.BitLength)
	assert.Equal(t, "r1", got.ReaderID)
}

func TestKeypadDigitsSequenceIncreases(t *testing.T) {
	var digits []model.PinDigitEvent
	reader := model.Reader{ID: "r1", Port: "COM3", Baud: 9600, Address: 1}
	sess, codec, bus, _ := newTestSession(t, reader, nil, func(e model.PinDigitEvent) { digits = append(digits, e) })

	for _, d := range []byte{'1', '2', '3'} {
		codec.InjectKeypad(bus, 1, d)
		ev := <-codec.Events(bus)
		sess.HandleEvent(context.Background(), ev)
	}

	require.Len(t, digits, 3)
	assert.Equal(t, uint64(1), digits[0].Sequence)
	assert.Equal(t, uint64(2), digits[1].Sequence)
	assert.Equal(t, uint64(3), digits[2].Sequence)
}

func TestSecureChannelInstallOnFirstOnline(t *testing.T) {
	reader := model.Reader{ID: "r5", Port: "COM4", Baud: 9600, Address: 2, SecurityMode: model.SecurityInstall}
	sess, codec, bus, secUpdater := newTestSession(t, reader, nil, nil)

	codec.GoOnline(bus, 2)
	ev := <-codec.Events(bus)
	sess.HandleEvent(context.Background(), ev)

	// installSecureChannel runs in its own goroutine; synchronize on the
	// fake updater's completion signal instead of sleeping.
	select {
	case <-secUpdater.done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for secure channel installation")
	}

	sentKeys := 0
	for _, s := range codec.SentCommands() {
		if s.Kind == "key" {
			sentKeys++
		}
	}
	assert.Equal(t, 1, sentKeys, "expected exactly one EncryptionKeySet call")
	assert.Equal(t, StateOnline, sess.State())
}

func TestDetachFromOnlineFiresOffline(t *testing.T) {
	reader := model.Reader{ID: "r1", Port: "COM3", Baud: 9600, Address: 1}
	sess, codec, bus, _ := newTestSession(t, reader, nil, nil)

	codec.GoOnline(bus, 1)
	ev := <-codec.Events(bus)
	sess.HandleEvent(context.Background(), ev)
	require.Equal(t, StateOnline, sess.State())

	sess.Detach(context.Background())
	assert.Equal(t, StateDetached, sess.State())
}

func TestSendFeedbackTranslatesColors(t *testing.T) {
	reader := model.Reader{ID: "r1", Port: "COM3", Baud: 9600, Address: 1}
	sess, codec, bus, _ := newTestSession(t, reader, nil, nil)

	err := sess.SendFeedback(context.Background(), model.ReaderFeedback{
		Type:        model.FeedbackSuccess,
		LEDColor:    model.LEDGreen,
		LEDDuration: 1000,
		BeepCount:   1,
		Text:        "ACCESS GRANTED",
	})
	require.NoError(t, err)

	sent := codec.SentCommands()
	require.GreaterOrEqual(t, len(sent), 3)
	assert.Equal(t, "led", sent[0].Kind)
	assert.Equal(t, osdp.LEDGreen, sent[0].LED.Color)
	_ = bus
}
