// Package bus implements the Bus Manager (C1): it owns every open serial
// connection to an OSDP codec, validates and applies reader configuration
// changes, and fans out codec events to per-device Sessions.
package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/osdpgw/gateway/internal/logger"
	"github.com/osdpgw/gateway/internal/telemetry"
	"github.com/osdpgw/gateway/pkg/device"
	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/notify"
	"github.com/osdpgw/gateway/pkg/osdp"
	"github.com/osdpgw/gateway/pkg/security"
)

// TraceSink receives raw frame observations for the Packet Trace Store.
// trace.Store satisfies this directly.
type TraceSink interface {
	Capture(readerID, readerName string, entry model.PacketTraceEntry)
}

// defaultStopGrace bounds how long Stop waits for the buses to detach their
// sessions and close before returning regardless.
const defaultStopGrace = 5 * time.Second

// busEntry tracks one open serial connection and the devices registered on
// it.
type busEntry struct {
	port   string
	baud   int
	handle osdp.BusHandle
	cancel context.CancelFunc

	mu       sync.Mutex
	byAddr   map[int]*device.Session
	byReader map[string]*device.Session
}

// Manager owns the set of open serial buses and the device Sessions
// registered on them.
type Manager struct {
	codec        osdp.Codec
	portChecker  PortChecker
	security     *security.Service
	secUpdater   device.SecurityUpdater
	notifyBus    notify.Bus
	onCardRead   device.CardReadFunc
	onPinDigit   device.PinDigitFunc
	idleFeedback func() model.IdleStateFeedback
	traceSink    TraceSink
	stopGrace    time.Duration

	mu      sync.Mutex
	buses   map[string]*busEntry // keyed by port
	started bool
	closed  bool
}

// Config bundles everything a Manager needs at construction time.
type Config struct {
	Codec        osdp.Codec
	PortChecker  PortChecker
	Security     *security.Service
	SecUpdater   device.SecurityUpdater
	NotifyBus    notify.Bus
	OnCardRead   device.CardReadFunc
	OnPinDigit   device.PinDigitFunc
	IdleFeedback func() model.IdleStateFeedback
	TraceSink    TraceSink
	StopGrace    time.Duration
}

// New constructs a Manager. PortChecker may be nil in tests, in which case
// every port is treated as present.
func New(cfg Config) *Manager {
	grace := cfg.StopGrace
	if grace <= 0 {
		grace = defaultStopGrace
	}
	return &Manager{
		codec:        cfg.Codec,
		portChecker:  cfg.PortChecker,
		security:     cfg.Security,
		secUpdater:   cfg.SecUpdater,
		notifyBus:    cfg.NotifyBus,
		onCardRead:   cfg.OnCardRead,
		onPinDigit:   cfg.OnPinDigit,
		idleFeedback: cfg.IdleFeedback,
		traceSink:    cfg.TraceSink,
		stopGrace:    grace,
		buses:        make(map[string]*busEntry),
	}
}

// AddDevice validates and applies a reader's configuration: the port must
// exist, its baud rate must match any other enabled reader already open on
// that port, and its address must be unique on that bus. On
// success the device is registered with the codec and a Session begins
// tracking it.
func (m *Manager) AddDevice(ctx context.Context, reader model.Reader) error {
	ctx, span := telemetry.StartSpan(ctx, "bus.add_device")
	defer span.End()

	if m.portChecker != nil && !m.portChecker.Exists(reader.Port) {
		return configErrorf(fmt.Sprintf("port %q does not exist", reader.Port))
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	entry, existing := m.buses[reader.Port]
	if existing && entry.baud != reader.Baud {
		m.mu.Unlock()
		return configErrorf(fmt.Sprintf("port %q already open at baud %d, cannot add reader at %d", reader.Port, entry.baud, reader.Baud))
	}
	m.mu.Unlock()

	key, err := m.security.GetSecurityKey(reader.SecurityMode, reader.SecurityKey)
	if err != nil {
		return fmt.Errorf("bus: resolve security key for reader %s: %w", reader.ID, err)
	}

	handle, err := m.codec.OpenBus(ctx, reader.Port, reader.Baud)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBusFailed, reader.Port, err)
	}

	m.mu.Lock()
	entry, existing = m.buses[reader.Port]
	if !existing {
		busCtx, cancel := context.WithCancel(context.Background())
		entry = &busEntry{
			port:     reader.Port,
			baud:     reader.Baud,
			handle:   handle,
			cancel:   cancel,
			byAddr:   make(map[int]*device.Session),
			byReader: make(map[string]*device.Session),
		}
		m.buses[reader.Port] = entry
		go m.dispatch(busCtx, entry)
	}
	m.mu.Unlock()

	entry.mu.Lock()
	if _, taken := entry.byAddr[reader.Address]; taken {
		entry.mu.Unlock()
		return configErrorf(fmt.Sprintf("address %d already in use on port %q", reader.Address, reader.Port))
	}
	entry.mu.Unlock()

	opts := osdp.DeviceOptions{
		UseCRC:           true,
		UseSecureChannel: reader.SecurityMode != model.SecurityClearText,
		Key:              key,
	}
	if err := m.codec.RegisterDevice(handle, reader.Address, opts); err != nil {
		return fmt.Errorf("bus: register device %s at address %d: %w", reader.ID, reader.Address, err)
	}

	sess := device.New(device.Config{
		Reader:     reader,
		Codec:      m.codec,
		Bus:        handle,
		Security:   m.security,
		SecUpdater: m.secUpdater,
		NotifyBus:  m.notifyBus,
		OnCardRead: m.onCardRead,
		OnPinDigit: m.onPinDigit,
	})
	sess.MarkRegistered()

	entry.mu.Lock()
	entry.byAddr[reader.Address] = sess
	entry.byReader[reader.ID] = sess
	entry.mu.Unlock()

	onlineDevices.WithLabelValues(reader.Port).Inc()
	logger.Info("device added", logger.ReaderID(reader.ID), logger.Address(reader.Address))
	return nil
}

// RemoveDevice detaches and unregisters a reader. If it was the last device
// on its bus, the bus itself is closed.
func (m *Manager) RemoveDevice(ctx context.Context, readerID string) error {
	m.mu.Lock()
	var entry *busEntry
	for _, e := range m.buses {
		e.mu.Lock()
		if _, ok := e.byReader[readerID]; ok {
			entry = e
		}
		e.mu.Unlock()
		if entry != nil {
			break
		}
	}
	m.mu.Unlock()

	if entry == nil {
		return ErrDeviceNotFound
	}

	entry.mu.Lock()
	sess, ok := entry.byReader[readerID]
	if !ok {
		entry.mu.Unlock()
		return ErrDeviceNotFound
	}
	delete(entry.byReader, readerID)
	delete(entry.byAddr, sess.Address())
	remaining := len(entry.byAddr)
	entry.mu.Unlock()

	sess.Detach(ctx)
	if err := m.codec.UnregisterDevice(entry.handle, sess.Address()); err != nil {
		logger.Warn("unregister device failed", logger.ReaderID(readerID), logger.Err(err))
	}
	onlineDevices.WithLabelValues(entry.port).Dec()

	if remaining == 0 {
		m.mu.Lock()
		delete(m.buses, entry.port)
		m.mu.Unlock()
		entry.cancel()
		if err := m.codec.CloseBus(entry.handle); err != nil {
			logger.Warn("close bus failed", logger.Operation("remove_device"), logger.Err(err))
		}
	}

	logger.Info("device removed", logger.ReaderID(readerID))
	return nil
}

// Start marks the Manager ready to serve heartbeat traffic. Bus dispatch
// goroutines are already running as of the first AddDevice; Start exists so
// callers (the Gateway) have a single explicit lifecycle entry point.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
}

// Stop detaches every session and closes every open bus concurrently,
// waiting up to StopGrace for that work before returning regardless (with
// the context's error). Dispatch loops are cancelled, not awaited. Stop is
// idempotent.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	entries := make([]*busEntry, 0, len(m.buses))
	for _, e := range m.buses {
		entries = append(entries, e)
	}
	m.buses = make(map[string]*busEntry)
	m.mu.Unlock()

	stopCtx, cancel := context.WithTimeout(ctx, m.stopGrace)
	defer cancel()

	g, _ := errgroup.WithContext(stopCtx)
	for _, entry := range entries {
		entry := entry
		g.Go(func() error {
			entry.mu.Lock()
			sessions := make([]*device.Session, 0, len(entry.byReader))
			for _, s := range entry.byReader {
				sessions = append(sessions, s)
			}
			entry.mu.Unlock()

			for _, s := range sessions {
				s.Detach(stopCtx)
			}
			entry.cancel()
			onlineDevices.DeleteLabelValues(entry.port)
			return m.codec.CloseBus(entry.handle)
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		return err
	case <-stopCtx.Done():
		return stopCtx.Err()
	}
}

// dispatch forwards every event on entry's bus to the matching device
// Session until ctx is cancelled or the codec closes the event channel.
func (m *Manager) dispatch(ctx context.Context, entry *busEntry) {
	events := m.codec.Events(entry.handle)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			entry.mu.Lock()
			sess := entry.byAddr[ev.Address]
			entry.mu.Unlock()
			if sess == nil {
				continue
			}
			if ev.Kind == osdp.EventStatusChanged && !ev.Online {
				pollErrorsTotal.WithLabelValues(entry.port).Inc()
			}
			if ev.Kind == osdp.EventFrame {
				m.captureFrame(sess, ev)
				continue
			}
			sess.HandleEvent(ctx, ev)
		}
	}
}

// captureFrame converts a codec-level raw frame observation into a packet
// trace entry and hands it to the configured TraceSink, if any.
func (m *Manager) captureFrame(sess *device.Session, ev osdp.Event) {
	if m.traceSink == nil {
		return
	}
	direction := model.TraceIncoming
	if ev.Direction == osdp.FrameOutgoing {
		direction = model.TraceOutgoing
	}
	m.traceSink.Capture(sess.ReaderID(), sess.ReaderName(), model.PacketTraceEntry{
		Timestamp:      time.Now(),
		Direction:      direction,
		Address:        ev.Address,
		Raw:            ev.Raw,
		CommandOrReply: ev.CommandOrReply,
		Sequence:       ev.Sequence,
		Secure:         ev.Secure,
		Valid:          ev.Valid,
		Error:          ev.ErrorText,
	})
}

// Sessions returns a snapshot of every currently registered device Session,
// used by the heartbeat ticker and by status queries.
func (m *Manager) Sessions() []*device.Session {
	m.mu.Lock()
	entries := make([]*busEntry, 0, len(m.buses))
	for _, e := range m.buses {
		entries = append(entries, e)
	}
	m.mu.Unlock()

	var out []*device.Session
	for _, e := range entries {
		e.mu.Lock()
		for _, s := range e.byReader {
			out = append(out, s)
		}
		e.mu.Unlock()
	}
	return out
}

// SendFeedback delivers a feedback command to readerID's device session.
// Manager satisfies pipeline.FeedbackSender through this method.
func (m *Manager) SendFeedback(ctx context.Context, readerID string, fb model.ReaderFeedback) error {
	m.mu.Lock()
	entries := make([]*busEntry, 0, len(m.buses))
	for _, e := range m.buses {
		entries = append(entries, e)
	}
	m.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		sess, ok := e.byReader[readerID]
		e.mu.Unlock()
		if ok {
			return sess.SendFeedback(ctx, fb)
		}
	}
	return ErrDeviceNotFound
}
