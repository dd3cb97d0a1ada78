package device

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/osdpgw/gateway/internal/logger"
	"github.com/osdpgw/gateway/internal/telemetry"
	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/notify"
	"github.com/osdpgw/gateway/pkg/osdp"
	"github.com/osdpgw/gateway/pkg/security"
)

// SecurityUpdater atomically persists a reader's security mode and key
// after a successful secure-channel installation.
type SecurityUpdater interface {
	UpdateSecurity(ctx context.Context, readerID string, mode model.SecurityMode, key []byte) error
}

// CardReadFunc receives a decoded card presentation.
type CardReadFunc func(model.CardReadEvent)

// PinDigitFunc receives a single keypad digit.
type PinDigitFunc func(model.PinDigitEvent)

// Session represents one physical reader on its bus: its OSDP state,
// security sub-state, and the translation from codec events to domain
// events. Sessions hold a non-owning lookup handle to the bus (the codec
// and BusHandle); they never own the serial connection.
type Session struct {
	reader model.Reader
	codec  osdp.Codec
	bus    osdp.BusHandle

	security   *security.Service
	secUpdater SecurityUpdater
	notifyBus  notify.Bus
	onCardRead CardReadFunc
	onPinDigit PinDigitFunc

	mu           sync.Mutex
	state        State
	sec          secState
	lastActivity time.Time

	pinSeq atomic.Uint64
}

// Config bundles everything a Session needs beyond the reader record.
type Config struct {
	Reader     model.Reader
	Codec      osdp.Codec
	Bus        osdp.BusHandle
	Security   *security.Service
	SecUpdater SecurityUpdater
	NotifyBus  notify.Bus
	OnCardRead CardReadFunc
	OnPinDigit PinDigitFunc
}

// New creates a Session in state Created. The caller (Bus Manager) is
// expected to have already called codec.RegisterDevice before transitioning
// it to Registered.
func New(cfg Config) *Session {
	sec := secClearText
	if cfg.Reader.SecurityMode == model.SecurityInstall {
		sec = secInstallArmed
	} else if cfg.Reader.SecurityMode == model.SecuritySecure {
		sec = secSecure
	}

	return &Session{
		reader:     cfg.Reader,
		codec:      cfg.Codec,
		bus:        cfg.Bus,
		security:   cfg.Security,
		secUpdater: cfg.SecUpdater,
		notifyBus:  cfg.NotifyBus,
		onCardRead: cfg.OnCardRead,
		onPinDigit: cfg.OnPinDigit,
		state:      StateCreated,
		sec:        sec,
	}
}

// ReaderID returns the session's reader id.
func (s *Session) ReaderID() string { return s.reader.ID }

// ReaderName returns the session's reader name, used to label packet trace
// entries.
func (s *Session) ReaderName() string { return s.reader.Name }

// Address returns the OSDP address the session's reader is registered at.
func (s *Session) Address() int { return s.reader.Address }

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// MarkRegistered transitions Created -> Registered once codec.RegisterDevice
// has succeeded.
func (s *Session) MarkRegistered() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCreated {
		s.state = StateRegistered
	}
}

// Detach transitions the session to Detached on remove or bus stop and
// fires a final offline status.
func (s *Session) Detach(ctx context.Context) {
	s.mu.Lock()
	wasOnline := s.state == StateOnline
	s.state = StateDetached
	s.mu.Unlock()

	if wasOnline {
		s.publishStatus(ctx, false, "")
	}
}

// HandleEvent dispatches one decoded codec event to the appropriate
// translation.
func (s *Session) HandleEvent(ctx context.Context, ev osdp.Event) {
	switch ev.Kind {
	case osdp.EventStatusChanged:
		s.handleStatusChanged(ctx, ev.Online)
	case osdp.EventCardRead:
		s.handleCardRead(ev)
	case osdp.EventKeypad:
		s.handleKeypad(ev)
	}
}

func (s *Session) handleStatusChanged(ctx context.Context, online bool) {
	s.mu.Lock()
	if s.state == StateDetached {
		s.mu.Unlock()
		return
	}

	wasOnline := s.state == StateOnline
	if online {
		s.state = StateOnline
		s.lastActivity = time.Now()
	} else if wasOnline {
		// Poll timeout: Online -> Registered, not Detached.
		s.state = StateRegistered
	}
	armInstall := online && !wasOnline && s.sec == secInstallArmed
	s.mu.Unlock()

	if online == wasOnline {
		return
	}

	s.publishStatus(ctx, online, "")

	if armInstall {
		go s.installSecureChannel(context.WithoutCancel(ctx))
	}
}

// installSecureChannel generates a random per-device key, installs it via
// the codec, and on success persists the new mode/key and re-raises
// StatusChanged with an informational message.
func (s *Session) installSecureChannel(ctx context.Context) {
	ctx, span := telemetry.StartSpan(ctx, "device.secure_channel.install")
	defer span.End()

	key, err := s.security.GenerateRandomKey()
	if err != nil {
		logger.Warn("secure channel install: generate key failed", logger.ReaderID(s.reader.ID), logger.Err(err))
		return
	}

	if err := s.codec.SetEncryptionKey(s.bus, s.reader.Address, key); err != nil {
		logger.Warn("secure channel install: key rejected, remaining in install mode",
			logger.ReaderID(s.reader.ID), logger.Err(err))
		return
	}

	if err := s.secUpdater.UpdateSecurity(ctx, s.reader.ID, model.SecuritySecure, key[:]); err != nil {
		logger.Warn("secure channel install: persist new key failed",
			logger.ReaderID(s.reader.ID), logger.Err(err))
		return
	}

	s.mu.Lock()
	s.sec = secSecure
	s.mu.Unlock()

	logger.Info("secure channel installed", logger.ReaderID(s.reader.ID))
	s.publishStatus(ctx, true, "secure channel installed")
}

func (s *Session) publishStatus(ctx context.Context, online bool, message string) {
	if s.notifyBus == nil {
		return
	}
	s.notifyBus.Broadcast(ctx, model.Notification{
		Kind:      model.NotifyReaderStatus,
		Timestamp: time.Now(),
		Payload: model.ReaderStatus{
			ReaderID: s.reader.ID,
			Online:   online,
			Message:  message,
		},
	})
}

func (s *Session) handleCardRead(ev osdp.Event) {
	cardNumber := osdp.DecodeCardNumber(ev.BitArray, ev.BitCount)
	event := model.CardReadEvent{
		ReaderID:   s.reader.ID,
		Timestamp:  time.Now(),
		BitLength:  ev.BitCount,
		CardNumber: cardNumber,
		RawBits:    rawBitsString(ev.BitArray, ev.BitCount),
		Metadata:   map[string]string{},
	}
	if ev.FormatCode != 0 {
		event.Metadata["formatCode"] = fmt.Sprintf("%d", ev.FormatCode)
	}

	logger.Debug("card read", logger.ReaderID(s.reader.ID), logger.CardBits(ev.BitCount))
	if s.onCardRead != nil {
		s.onCardRead(event)
	}
}

func (s *Session) handleKeypad(ev osdp.Event) {
	event := model.PinDigitEvent{
		ReaderID:  s.reader.ID,
		Timestamp: time.Now(),
		Digit:     ev.Digit,
		Sequence:  s.pinSeq.Add(1),
	}
	if s.onPinDigit != nil {
		s.onPinDigit(event)
	}
}

func rawBitsString(bits []byte, bitCount int) string {
	if bitCount <= 0 {
		return ""
	}
	out := make([]byte, 0, bitCount)
	for i := 0; i < bitCount; i++ {
		byteIdx := i / 8
		if byteIdx >= len(bits) {
			break
		}
		bitIdx := 7 - (i % 8)
		if bits[byteIdx]&(1<<uint(bitIdx)) != 0 {
			out = append(out, '1')
		} else {
			out = append(out, '0')
		}
	}
	return string(out)
}
