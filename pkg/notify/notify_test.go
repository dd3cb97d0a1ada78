package notify

import (
	"context"
	"testing"
	"time"

	"github.com/osdpgw/gateway/pkg/model"
)

func TestChannelBusFanOut(t *testing.T) {
	bus := New(4)
	sub1 := bus.Subscribe("a")
	sub2 := bus.Subscribe("b")

	bus.Broadcast(context.Background(), model.Notification{Kind: model.NotifyCardEvent})

	for _, sub := range []*Subscriber{sub1, sub2} {
		select {
		case n := <-sub.Notifications():
			if n.Kind != model.NotifyCardEvent {
				t.Fatalf("got kind %q, want card_event", n.Kind)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for notification")
		}
	}
}

func TestChannelBusDropsWhenFull(t *testing.T) {
	bus := New(1)
	sub := bus.Subscribe("slow")

	bus.Broadcast(context.Background(), model.Notification{Kind: model.NotifyPinEvent})
	bus.Broadcast(context.Background(), model.Notification{Kind: model.NotifyPinEvent})

	// Only the first should have been delivered; the second is dropped
	// rather than blocking the broadcaster.
	<-sub.Notifications()
	select {
	case <-sub.Notifications():
		t.Fatal("expected second notification to be dropped, not delivered")
	default:
	}
}

func TestChannelBusUnsubscribe(t *testing.T) {
	bus := New(4)
	sub := bus.Subscribe("x")
	bus.Unsubscribe("x")

	if _, ok := <-sub.Notifications(); ok {
		t.Fatal("expected channel closed after unsubscribe")
	}
}

func TestNopBus(t *testing.T) {
	var b Bus = NopBus{}
	b.Broadcast(context.Background(), model.Notification{})
}
