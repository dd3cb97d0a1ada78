package pipeline

import (
	"context"

	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/notify"
	"github.com/osdpgw/gateway/pkg/plugin"
	"github.com/osdpgw/gateway/pkg/store"
)

// PinPipeline is the Event Pipeline instantiated for completed PIN entries.
type PinPipeline = Pipeline[model.PinReadEvent, model.PinReadResult]

type pinPersister struct{ events store.EventStore }

func (p pinPersister) Persist(ctx context.Context, event model.PinReadEvent, outcome model.PipelineOutcome) error {
	return p.events.AppendPinEvent(ctx, event, outcome)
}

// NewPinPipeline wires a Pipeline for PinReadEvent: each applicable plugin
// is invoked via ProcessPinRead, judged on its PinReadResult.Success field.
func NewPinPipeline(plugins PluginSource, feedback FeedbackLoader, events store.EventStore, devices FeedbackSender, bus notify.Bus) *PinPipeline {
	return New(Config[model.PinReadEvent, model.PinReadResult]{
		Kind:    "pin",
		Plugins: plugins,
		Run: func(ctx context.Context, p plugin.Plugin, event model.PinReadEvent) (model.PinReadResult, error) {
			handler := p.(plugin.PinHandler)
			return handler.ProcessPinRead(ctx, event)
		},
		Judge:      func(r model.PinReadResult) bool { return r.Success },
		Applicable: func(p plugin.Plugin) bool { _, ok := p.(plugin.PinHandler); return ok },
		Feedback:   feedback,
		Persist:    pinPersister{events: events},
		Devices:    devices,
		Notify:     bus,
		NotifyKind: model.NotifyPinEvent,
	})
}
