// Package pipeline implements the Event Processing Pipeline (C3): a single
// generic orchestration of plugin execution, feedback selection,
// persistence, feedback delivery, and notification fan-out, instantiated
// once per event kind.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/osdpgw/gateway/internal/logger"
	"github.com/osdpgw/gateway/internal/telemetry"
	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/notify"
	"github.com/osdpgw/gateway/pkg/plugin"
)

// Runner invokes one plugin against an event of type E, returning its raw
// domain result of type R.
type Runner[E model.Event, R any] func(ctx context.Context, p plugin.Plugin, event E) (R, error)

// Judge decides whether a plugin's raw result counts as success for the
// aggregate outcome.
type Judge[R any] func(R) bool

// FeedbackSender issues a feedback command to the reader an event
// originated from.
type FeedbackSender interface {
	SendFeedback(ctx context.Context, readerID string, fb model.ReaderFeedback) error
}

// Persister writes one event + outcome pair. Separate Persist methods per
// event kind let the two Pipeline instantiations share this interface while
// calling the right store method.
type Persister[E model.Event] interface {
	Persist(ctx context.Context, event E, outcome model.PipelineOutcome) error
}

// FeedbackLoader resolves the current Success/Failure feedback records.
type FeedbackLoader interface {
	LoadFeedback(ctx context.Context) (model.FeedbackConfig, error)
}

// PluginSource resolves a reader's ordered, enabled plugin chain.
type PluginSource interface {
	GetPluginsForReader(ctx context.Context, readerID string) ([]plugin.Plugin, error)
}

// Config bundles a Pipeline's collaborators.
type Config[E model.Event, R any] struct {
	Kind       string // used in span names, e.g. "card", "pin"
	Plugins    PluginSource
	Run        Runner[E, R]
	Judge      Judge[R]
	// Applicable filters the resolved chain to plugins that actually
	// implement this event kind's handler interface. A plugin registered
	// only for the other kind is skipped entirely rather than recorded as
	// a failure. Nil means every resolved plugin is applicable.
	Applicable func(plugin.Plugin) bool
	Feedback   FeedbackLoader
	Persist    Persister[E]
	Devices    FeedbackSender
	Notify     notify.Bus
	NotifyKind model.NotificationKind
}

// Pipeline processes events of kind E, invoking plugins whose raw results
// are of type R, per-reader serialized.
type Pipeline[E model.Event, R any] struct {
	cfg Config[E, R]

	mu        sync.Mutex
	mailboxes map[string]*mailbox
}

// mailbox serializes every event for one reader through a single goroutine,
// so per-reader pipeline invocations preserve arrival order while distinct
// readers proceed concurrently.
type mailbox struct {
	ch   chan func()
	once sync.Once
	done chan struct{}
}

func newMailbox() *mailbox {
	m := &mailbox{ch: make(chan func(), 64), done: make(chan struct{})}
	go m.run()
	return m
}

func (m *mailbox) run() {
	defer close(m.done)
	for fn := range m.ch {
		fn()
	}
}

func (m *mailbox) submit(fn func()) { m.ch <- fn }

func (m *mailbox) closeAndWait() {
	m.once.Do(func() { close(m.ch) })
	<-m.done
}

// New constructs a Pipeline from its collaborators.
func New[E model.Event, R any](cfg Config[E, R]) *Pipeline[E, R] {
	return &Pipeline[E, R]{cfg: cfg, mailboxes: make(map[string]*mailbox)}
}

// Process runs the five-step pipeline for one event. It enqueues the work
// on the event's reader mailbox and blocks until that step of the chain
// (plugins through feedback delivery) completes; notification fan-out
// (step 5) happens asynchronously afterward and does not block the caller
// further than handing the outcome off.
func (p *Pipeline[E, R]) Process(ctx context.Context, event E) model.PipelineOutcome {
	result := make(chan model.PipelineOutcome, 1)
	mb := p.mailboxFor(event.Reader())
	mb.submit(func() {
		result <- p.run(ctx, event)
	})
	return <-result
}

func (p *Pipeline[E, R]) mailboxFor(readerID string) *mailbox {
	p.mu.Lock()
	defer p.mu.Unlock()
	mb, ok := p.mailboxes[readerID]
	if !ok {
		mb = newMailbox()
		p.mailboxes[readerID] = mb
	}
	return mb
}

func (p *Pipeline[E, R]) run(ctx context.Context, event E) model.PipelineOutcome {
	ctx, span := telemetry.StartSpan(ctx, "pipeline."+p.cfg.Kind+".process")
	defer span.End()

	outcome := p.executePlugins(ctx, event)
	outcome.Feedback = p.selectFeedback(ctx, outcome.Success)
	outcome.PersistenceOK = p.persist(ctx, event, outcome)
	outcome.FeedbackOK = p.deliverFeedback(ctx, event.Reader(), outcome.Feedback)
	p.notifyAsync(event, outcome)
	return outcome
}

func (p *Pipeline[E, R]) executePlugins(ctx context.Context, event E) model.PipelineOutcome {
	plugins, err := p.cfg.Plugins.GetPluginsForReader(ctx, event.Reader())
	if err != nil {
		logger.Warn("pipeline: list plugins failed", logger.ReaderID(event.Reader()), logger.Err(err))
		return model.PipelineOutcome{Success: false, Message: "failed to resolve plugin chain"}
	}
	if p.cfg.Applicable != nil {
		filtered := plugins[:0]
		for _, pl := range plugins {
			if p.cfg.Applicable(pl) {
				filtered = append(filtered, pl)
			}
		}
		plugins = filtered
	}
	if len(plugins) == 0 {
		return model.PipelineOutcome{Success: false, Message: "no plugins configured for reader"}
	}

	results := make([]model.PluginOutcome, 0, len(plugins))
	success := true
	for _, pl := range plugins {
		raw, err := p.cfg.Run(ctx, pl, event)
		po := model.PluginOutcome{PluginID: pl.ID(), PluginName: pl.Name()}
		switch {
		case err != nil:
			po.Success = false
			po.Error = err.Error()
			success = false
		case !p.cfg.Judge(raw):
			po.Success = false
			po.Error = "Plugin denied access"
			success = false
		default:
			po.Success = true
		}
		results = append(results, po)
	}

	return model.PipelineOutcome{
		Success:       success,
		Message:       aggregateMessage(success),
		PluginResults: results,
	}
}

func aggregateMessage(success bool) string {
	if success {
		return "approved"
	}
	return "denied"
}

func (p *Pipeline[E, R]) selectFeedback(ctx context.Context, success bool) model.ReaderFeedback {
	cfg, err := p.cfg.Feedback.LoadFeedback(ctx)
	if err != nil {
		logger.Warn("pipeline: load feedback config failed, using built-in default", logger.Err(err))
		if success {
			return model.DefaultSuccessFeedback()
		}
		return model.DefaultFailureFeedback()
	}
	if success {
		return cfg.Success
	}
	return cfg.Failure
}

func (p *Pipeline[E, R]) persist(ctx context.Context, event E, outcome model.PipelineOutcome) bool {
	if p.cfg.Persist == nil {
		return true
	}
	if err := p.cfg.Persist.Persist(ctx, event, outcome); err != nil {
		logger.Warn("pipeline: persist event failed", logger.ReaderID(event.Reader()), logger.Err(err))
		return false
	}
	return true
}

func (p *Pipeline[E, R]) deliverFeedback(ctx context.Context, readerID string, fb model.ReaderFeedback) bool {
	if p.cfg.Devices == nil {
		return true
	}
	if err := p.cfg.Devices.SendFeedback(ctx, readerID, fb); err != nil {
		logger.Warn("pipeline: feedback delivery failed", logger.ReaderID(readerID), logger.Err(err))
		return false
	}
	return true
}

func (p *Pipeline[E, R]) notifyAsync(event E, outcome model.PipelineOutcome) {
	if p.cfg.Notify == nil {
		return
	}
	go p.cfg.Notify.Broadcast(context.Background(), model.Notification{
		Kind: p.cfg.NotifyKind,
		Payload: struct {
			Event   E                     `json:"event"`
			Outcome model.PipelineOutcome `json:"outcome"`
		}{Event: event, Outcome: outcome},
	})
}

// Stop drains every reader mailbox: pending submissions already enqueued
// finish, and no new Process calls should be made after Stop starts.
// In-flight pipelines complete before Stop returns.
func (p *Pipeline[E, R]) Stop() {
	p.mu.Lock()
	boxes := make([]*mailbox, 0, len(p.mailboxes))
	for _, mb := range p.mailboxes {
		boxes = append(boxes, mb)
	}
	p.mailboxes = make(map[string]*mailbox)
	p.mu.Unlock()

	var wg sync.WaitGroup
	for _, mb := range boxes {
		mb := mb
		wg.Add(1)
		go func() {
			defer wg.Done()
			mb.closeAndWait()
		}()
	}
	wg.Wait()
}

// EncodePluginResults renders plugin results as the pipe-delimited storage
// format: name:Success|Failed:error triples joined with pipes.
func EncodePluginResults(results []model.PluginOutcome) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		status := "Failed"
		if r.Success {
			status = "Success"
		}
		parts = append(parts, fmt.Sprintf("%s:%s:%s", r.PluginName, status, r.Error))
	}
	return strings.Join(parts, "|")
}

// DecodePluginResults is the inverse of EncodePluginResults. Readers of
// this format must tolerate missing error text, so a triple with only two
// fields decodes with Error left empty. An empty input string decodes to an
// empty, non-nil slice.
func DecodePluginResults(encoded string) []model.PluginOutcome {
	if encoded == "" {
		return []model.PluginOutcome{}
	}
	parts := strings.Split(encoded, "|")
	out := make([]model.PluginOutcome, 0, len(parts))
	for _, part := range parts {
		fields := strings.SplitN(part, ":", 3)
		po := model.PluginOutcome{}
		if len(fields) > 0 {
			po.PluginName = fields[0]
		}
		if len(fields) > 1 {
			po.Success = fields[1] == "Success"
		}
		if len(fields) > 2 {
			po.Error = fields[2]
		}
		out = append(out, po)
	}
	return out
}
