package pipeline

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
	"github.com/osdpgw/gateway/pkg/plugin"
)

// ---- fakes ----

type fakePlugin struct {
	id, name string
	approve  func(model.CardReadEvent) (bool, error)
}

func (p *fakePlugin) ID() string                                  { return p.id }
func (p *fakePlugin) Name() string                                { return p.name }
func (p *fakePlugin) Version() string                              { return "1.0.0" }
func (p *fakePlugin) Description() string                          { return "" }
func (p *fakePlugin) Initialize(context.Context) error             { return nil }
func (p *fakePlugin) Shutdown(context.Context) error                { return nil }
func (p *fakePlugin) ProcessCardRead(_ context.Context, e model.CardReadEvent) (bool, error) {
	return p.approve(e)
}

var _ plugin.Plugin = (*fakePlugin)(nil)
var _ plugin.CardHandler = (*fakePlugin)(nil)

type fakePluginSource struct {
	mu       sync.Mutex
	byReader map[string][]plugin.Plugin
}

func newFakePluginSource() *fakePluginSource {
	return &fakePluginSource{byReader: make(map[string][]plugin.Plugin)}
}

func (f *fakePluginSource) set(readerID string, plugins ...plugin.Plugin) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byReader[readerID] = plugins
}

func (f *fakePluginSource) GetPluginsForReader(_ context.Context, readerID string) ([]plugin.Plugin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byReader[readerID], nil
}

type fakeFeedbackLoader struct{ cfg model.FeedbackConfig }

func (f fakeFeedbackLoader) LoadFeedback(context.Context) (model.FeedbackConfig, error) {
	return f.cfg, nil
}

func defaultFeedbackConfig() model.FeedbackConfig {
	return model.FeedbackConfig{
		Success: model.DefaultSuccessFeedback(),
		Failure: model.DefaultFailureFeedback(),
	}
}

type fakeEventStore struct {
	mu      sync.Mutex
	cards   []model.CardReadEvent
	persist error
}

func (f *fakeEventStore) AppendCardEvent(_ context.Context, e model.CardReadEvent, _ model.PipelineOutcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.persist != nil {
		return f.persist
	}
	f.cards = append(f.cards, e)
	return nil
}
func (f *fakeEventStore) AppendPinEvent(context.Context, model.PinReadEvent, model.PipelineOutcome) error {
	return nil
}

type fakeDevices struct {
	mu  sync.Mutex
	got []model.ReaderFeedback
}

func (d *fakeDevices) SendFeedback(_ context.Context, _ string, fb model.ReaderFeedback) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.got = append(d.got, fb)
	return nil
}

func newTestCardPipeline(plugins *fakePluginSource, events *fakeEventStore, devices *fakeDevices) *CardPipeline {
	return NewCardPipeline(plugins, fakeFeedbackLoader{cfg: defaultFeedbackConfig()}, events, devices, notify.NopBus{})
}

func TestAuthorizedCardOnSinglePlugin(t *testing.T) {
	plugins := newFakePluginSource()
	plugins.set("r1", &fakePlugin{id: "p1", name: "allowlist", approve: func(e model.CardReadEvent) (bool, error) {
		return e.CardNumber == "12345678", nil
	}})
	events := &fakeEventStore{}
	devices := &fakeDevices{}
	pl := newTestCardPipeline(plugins, events, devices)

	outcome := pl.Process(context.Background(), model.CardReadEvent{ReaderID: "r1", CardNumber: "12345678", Timestamp: time.Now()})

	assert.True(t, outcome.Success)
	assert.Equal(t, model.LEDGreen, outcome.Feedback.LEDColor)
	assert.Equal(t, time.Second, outcome.Feedback.LEDDuration)
	assert.Equal(t, 1, outcome.Feedback.BeepCount)
	assert.Equal(t, "ACCESS GRANTED", outcome.Feedback.Text)
	require.Len(t, events.cards, 1)
	require.Len(t, devices.got, 1)
}

func TestUnauthorizedCard(t *testing.T) {
	plugins := newFakePluginSource()
	plugins.set("r1", &fakePlugin{id: "p1", name: "allowlist", approve: func(e model.CardReadEvent) (bool, error) {
		return e.CardNumber == "12345678", nil
	}})
	pl := newTestCardPipeline(plugins, &fakeEventStore{}, &fakeDevices{})

	outcome := pl.Process(context.Background(), model.CardReadEvent{ReaderID: "r1", CardNumber: "99999999", Timestamp: time.Now()})

	assert.False(t, outcome.Success)
	assert.Equal(t, model.LEDRed, outcome.Feedback.LEDColor)
	assert.Equal(t, 2*time.Second, outcome.Feedback.LEDDuration)
	assert.Equal(t, 3, outcome.Feedback.BeepCount)
	require.Len(t, outcome.PluginResults, 1)
	assert.False(t, outcome.PluginResults[0].Success)
	assert.Equal(t, "Plugin denied access", outcome.PluginResults[0].Error)
}

func TestTwoPluginsOneThrows(t *testing.T) {
	plugins := newFakePluginSource()
	plugins.set("r2",
		&fakePlugin{id: "p1", name: "p1", approve: func(model.CardReadEvent) (bool, error) { return true, nil }},
		&fakePlugin{id: "p2", name: "p2", approve: func(model.CardReadEvent) (bool, error) {
			return false, errors.New("db unreachable")
		}},
	)
	pl := newTestCardPipeline(plugins, &fakeEventStore{}, &fakeDevices{})

	outcome := pl.Process(context.Background(), model.CardReadEvent{ReaderID: "r2", CardNumber: "11111111", Timestamp: time.Now()})

	assert.False(t, outcome.Success)
	require.Len(t, outcome.PluginResults, 2)
	assert.True(t, outcome.PluginResults[0].Success)
	assert.False(t, outcome.PluginResults[1].Success)
	assert.Equal(t, "db unreachable", outcome.PluginResults[1].Error)
	assert.Equal(t, model.LEDRed, outcome.Feedback.LEDColor)
}

func TestNoPluginsConfiguredIsFailure(t *testing.T) {
	plugins := newFakePluginSource()
	pl := newTestCardPipeline(plugins, &fakeEventStore{}, &fakeDevices{})

	outcome := pl.Process(context.Background(), model.CardReadEvent{ReaderID: "r9", CardNumber: "1", Timestamp: time.Now()})

	assert.False(t, outcome.Success)
	assert.Equal(t, "no plugins configured for reader", outcome.Message)
}

func TestPersistenceFailureDoesNotFailPipeline(t *testing.T) {
	plugins := newFakePluginSource()
	plugins.set("r1", &fakePlugin{id: "p1", name: "p1", approve: func(model.CardReadEvent) (bool, error) { return true, nil }})
	events := &fakeEventStore{persist: errors.New("disk full")}
	pl := newTestCardPipeline(plugins, events, &fakeDevices{})

	outcome := pl.Process(context.Background(), model.CardReadEvent{ReaderID: "r1", CardNumber: "1", Timestamp: time.Now()})

	assert.True(t, outcome.Success)
	assert.False(t, outcome.PersistenceOK)
}

func TestPerReaderEventsProcessInArrivalOrder(t *testing.T) {
	var mu sync.Mutex
	var seen []string

	plugins := newFakePluginSource()
	plugins.set("r1", &fakePlugin{id: "p1", name: "p1", approve: func(e model.CardReadEvent) (bool, error) {
		mu.Lock()
		seen = append(seen, e.CardNumber)
		mu.Unlock()
		return true, nil
	}})
	pl := newTestCardPipeline(plugins, &fakeEventStore{}, &fakeDevices{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		card := string(rune('0' + i))
		go func() {
			defer wg.Done()
			pl.Process(context.Background(), model.CardReadEvent{ReaderID: "r1", CardNumber: card, Timestamp: time.Now()})
		}()
		wg.Wait() // submit strictly sequentially so arrival order is deterministic
	}

	require.Len(t, seen, 5)
	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, seen)
}

func TestEncodePluginResultsFormat(t *testing.T) {
	got := EncodePluginResults([]model.PluginOutcome{
		{PluginName: "allowlist", Success: true},
		{PluginName: "ratelimit", Success: false, Error: "too many attempts"},
	})
	assert.Equal(t, "allowlist:Success:|ratelimit:Failed:too many attempts", got)
}

func TestPluginResultsRoundTrip(t *testing.T) {
	results := []model.PluginOutcome{
		{PluginName: "allowlist", Success: true},
		{PluginName: "ratelimit", Success: false, Error: "too many attempts"},
	}
	decoded := DecodePluginResults(EncodePluginResults(results))
	require.Len(t, decoded, len(results))
	for i, r := range results {
		assert.Equal(t, r.PluginName, decoded[i].PluginName)
		assert.Equal(t, r.Success, decoded[i].Success)
		assert.Equal(t, r.Error, decoded[i].Error)
	}
}

func TestDecodePluginResultsToleratesMissingErrorText(t *testing.T) {
	decoded := DecodePluginResults("allowlist:Success")
	require.Len(t, decoded, 1)
	assert.Equal(t, "allowlist", decoded[0].PluginName)
	assert.True(t, decoded[0].Success)
	assert.Empty(t, decoded[0].Error)
}
