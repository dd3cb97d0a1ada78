package pipeline

import (
	"context"

	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/notify"
	"github.com/osdpgw/gateway/pkg/plugin"
	"github.com/osdpgw/gateway/pkg/store"
)

// CardPipeline is the Event Pipeline instantiated for card-read events.
type CardPipeline = Pipeline[model.CardReadEvent, bool]

type cardPersister struct{ events store.EventStore }

func (c cardPersister) Persist(ctx context.Context, event model.CardReadEvent, outcome model.PipelineOutcome) error {
	return c.events.AppendCardEvent(ctx, event, outcome)
}

// NewCardPipeline wires a Pipeline for CardReadEvent: each applicable plugin
// is invoked via ProcessCardRead, whose returned bool is the judge (true =
// approve).
func NewCardPipeline(plugins PluginSource, feedback FeedbackLoader, events store.EventStore, devices FeedbackSender, bus notify.Bus) *CardPipeline {
	return New(Config[model.CardReadEvent, bool]{
		Kind:    "card",
		Plugins: plugins,
		Run: func(ctx context.Context, p plugin.Plugin, event model.CardReadEvent) (bool, error) {
			handler := p.(plugin.CardHandler)
			return handler.ProcessCardRead(ctx, event)
		},
		Judge:      func(approved bool) bool { return approved },
		Applicable: func(p plugin.Plugin) bool { _, ok := p.(plugin.CardHandler); return ok },
		Feedback:   feedback,
		Persist:    cardPersister{events: events},
		Devices:    devices,
		Notify:     bus,
		NotifyKind: model.NotifyCardEvent,
	})
}
