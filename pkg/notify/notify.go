// Package notify defines the notification fan-out collaborator:
// a single fire-and-forget Broadcast used by the Event Pipeline, Device
// Session, and Packet Trace Store to push card events, PIN events, reader
// status, configuration changes, and aggregated statistics out of the
// core. The real-time web hub that consumes these is out of scope; this
// package only defines the contract and an in-process implementation.
package notify

import (
	"context"
	"sync"

	"github.com/osdpgw/gateway/internal/logger"
	"github.com/osdpgw/gateway/pkg/model"
)

// Bus is the capability the core requires from a notification collaborator.
// Broadcast must never block the caller for long and must never panic;
// implementations are responsible for isolating slow or failing
// subscribers from callers; notification failure is logged, never
// propagated.
type Bus interface {
	Broadcast(ctx context.Context, n model.Notification)
}

// Subscriber receives every notification broadcast on a ChannelBus. Slow
// subscribers are expected to drain their channel promptly; ChannelBus
// drops notifications for a subscriber whose channel is full rather than
// block the broadcaster.
type Subscriber struct {
	id string
	ch chan model.Notification
}

// Notifications returns the subscriber's delivery channel.
func (s *Subscriber) Notifications() <-chan model.Notification { return s.ch }

// ChannelBus fans a notification out to every subscribed channel. It is
// the default in-process Bus implementation; combining it with a
// structured-log sink (see WithLogging) covers the ambient "notification
// collaborator" without standing up a real-time web hub.
type ChannelBus struct {
	mu       sync.RWMutex
	subs     map[string]*Subscriber
	bufSize  int
	logEvery bool
}

// New returns a ChannelBus with the given per-subscriber channel buffer
// size. A small buffer lets bursts of events ride through without blocking
// the pipeline that is broadcasting them.
func New(bufSize int) *ChannelBus {
	if bufSize <= 0 {
		bufSize = 64
	}
	return &ChannelBus{subs: make(map[string]*Subscriber), bufSize: bufSize}
}

// WithLogging enables a debug-level log line for every broadcast, mirroring
// how the gateway observes fire-and-forget fan-out without a real
// subscriber attached (useful for the CLI `start` command run standalone).
func (b *ChannelBus) WithLogging() *ChannelBus {
	b.logEvery = true
	return b
}

// Subscribe registers a new subscriber and returns a handle whose channel
// receives every subsequent broadcast. Callers must call Unsubscribe when
// done to release the channel.
func (b *ChannelBus) Subscribe(id string) *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := &Subscriber{id: id, ch: make(chan model.Notification, b.bufSize)}
	b.subs[id] = sub
	return sub
}

// Unsubscribe removes and closes a subscriber's channel.
func (b *ChannelBus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		close(sub.ch)
		delete(b.subs, id)
	}
}

// Broadcast fans n out to every subscriber. A subscriber whose channel is
// full has the notification dropped for it rather than blocking the
// caller; broadcast is strictly fire-and-forget.
func (b *ChannelBus) Broadcast(_ context.Context, n model.Notification) {
	if b.logEvery {
		logger.Debug("notification broadcast", "kind", string(n.Kind))
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, sub := range b.subs {
		select {
		case sub.ch <- n:
		default:
			logger.Warn("notification dropped, subscriber channel full", "subscriber", id, "kind", string(n.Kind))
		}
	}
}

var _ Bus = (*ChannelBus)(nil)

// NopBus discards every notification. Useful for tests that don't care
// about the fan-out path.
type NopBus struct{}

func (NopBus) Broadcast(context.Context, model.Notification) {}

var _ Bus = NopBus{}
