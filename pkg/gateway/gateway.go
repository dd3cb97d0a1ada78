// Package gateway wires the Bus Manager, Device Sessions, Event Pipeline,
// PIN Collector, Plugin Host, Packet Trace Store, and Configuration &
// Security Services into a single owner object passed by reference to
// collaborators; there are no ambient statics. Every cmd/ entry point
// constructs exactly one Gateway.
package gateway

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/osdpgw/gateway/internal/logger"
	"github.com/osdpgw/gateway/pkg/bus"
	"github.com/osdpgw/gateway/pkg/config"
	"github.com/osdpgw/gateway/pkg/configsvc"
	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/notify"
	"github.com/osdpgw/gateway/pkg/osdp"
	"github.com/osdpgw/gateway/pkg/pincollector"
	"github.com/osdpgw/gateway/pkg/pipeline"
	"github.com/osdpgw/gateway/pkg/plugin"
	"github.com/osdpgw/gateway/pkg/security"
	"github.com/osdpgw/gateway/pkg/store"
	"github.com/osdpgw/gateway/pkg/store/badgerstore"
	"github.com/osdpgw/gateway/pkg/store/gormstore"
	"github.com/osdpgw/gateway/pkg/store/memstore"
	"github.com/osdpgw/gateway/pkg/trace"
)

// Gateway owns every collaborator the core needs: the repository, the Bus
// Manager, the Plugin Host, the PIN Collector, the two Event Pipelines, the
// Packet Trace Store, and the Configuration & Security Services built on
// top of them. Nothing outside Gateway opens a serial port, a plugin
// artifact, or a database connection.
type Gateway struct {
	cfg     *config.Config
	Repo    store.Repository
	Notify  *notify.ChannelBus
	Trace   *trace.Store
	Plugins *plugin.Host
	Buses   *bus.Manager
	Pins    *pincollector.Collector

	Readers        *configsvc.ReaderConfigService
	Mappings       *configsvc.MappingService
	Feedback       *configsvc.FeedbackConfigService
	OSDPSecurity   *configsvc.OSDPSecurityService
	SecurityUpdate *configsvc.SecurityModeUpdateService

	cardPipeline *pipeline.CardPipeline
	pinPipeline  *pipeline.PinPipeline

	heartbeatCancel   context.CancelFunc
	pluginWatchCancel context.CancelFunc
}

// New builds a Gateway from cfg but does not start polling or scanning
// plugins; call Start for that. codec is the OSDP transport the Bus
// Manager drives: the real RS-485 physical layer behind
// serialport.Port, or osdp/simulator for tests and non-hardware runs.
func New(ctx context.Context, cfg *config.Config, codec osdp.Codec) (*Gateway, error) {
	repo, err := OpenRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("gateway: open repository: %w", err)
	}

	notifyBus := notify.New(256)
	traceStore := trace.New(cfg.Trace.ToSettings(), notifyBus)
	secSvc := security.NewService()

	pluginHost := plugin.New(cfg.PluginDir, repo)

	g := &Gateway{
		cfg:      cfg,
		Repo:     repo,
		Notify:   notifyBus,
		Trace:    traceStore,
		Plugins:  pluginHost,
		Pins:     pincollector.New(pincollector.DefaultConfig(), nil),
	}

	g.Buses = bus.New(bus.Config{
		Codec:       codec,
		PortChecker: bus.RealPortChecker{},
		Security:    secSvc,
		SecUpdater:  repo,
		NotifyBus:   notifyBus,
		OnCardRead:  g.handleCardRead,
		OnPinDigit:  g.handlePinDigit,
		TraceSink:   traceStore,
		StopGrace:   cfg.ShutdownTimeout,
		IdleFeedback: func() model.IdleStateFeedback {
			fb, err := repo.LoadFeedback(context.Background())
			if err != nil || fb.Idle == (model.IdleStateFeedback{}) {
				return model.IdleStateFeedback{
					PermanentColor: model.LEDBlue,
					HeartbeatColor: model.LEDGreen,
					HeartbeatEvery: 5 * time.Second,
				}
			}
			return fb.Idle
		},
	})

	g.Pins = pincollector.New(pincollector.DefaultConfig(), g.handlePinComplete)

	g.Readers = configsvc.NewReaderConfigService(repo, g.Buses).WithNotify(notifyBus)
	g.Mappings = configsvc.NewMappingService(repo)
	g.Feedback = configsvc.NewFeedbackConfigService(repo)
	g.OSDPSecurity = configsvc.NewOSDPSecurityService(secSvc)
	g.SecurityUpdate = configsvc.NewSecurityModeUpdateService(repo)

	g.cardPipeline = pipeline.NewCardPipeline(pluginHost, repo, repo, g.Buses, notifyBus)
	g.pinPipeline = pipeline.NewPinPipeline(pluginHost, repo, repo, g.Buses, notifyBus)

	return g, nil
}

// OpenRepository opens the storage backend cfg.Storage selects, wrapping it
// in the encrypted-at-rest decorator when a master secret is configured.
// The offline admin commands use this directly to operate on the same
// store the daemon does, without going through a running Gateway.
func OpenRepository(cfg *config.Config) (store.Repository, error) {
	var repo store.Repository
	switch cfg.Storage.Type {
	case "memory":
		repo = memstore.New()
	case "badger":
		s, err := badgerstore.Open(cfg.Storage.BadgerDir)
		if err != nil {
			return nil, err
		}
		repo = s
	case "sqlite", "postgres":
		s, err := gormstore.New(&cfg.Storage.GORM)
		if err != nil {
			return nil, err
		}
		repo = s
	default:
		return nil, fmt.Errorf("gateway: unknown storage type %q", cfg.Storage.Type)
	}

	if secret := os.Getenv(cfg.Security.MasterSecretEnv); secret != "" {
		cipher, err := security.NewKeyCipher([]byte(secret))
		if err != nil {
			return nil, fmt.Errorf("gateway: build key cipher: %w", err)
		}
		repo = security.NewEncryptedStore(repo, cipher)
		logger.Info("reader secure-channel keys encrypted at rest")
	}

	return repo, nil
}

// handleCardRead is the Bus Manager's CardReadFunc: it runs the card
// pipeline for the event's reader.
func (g *Gateway) handleCardRead(event model.CardReadEvent) {
	g.cardPipeline.Process(context.Background(), event)
}

// handlePinDigit is the Bus Manager's PinDigitFunc: every keypad digit is
// fed to the PIN Collector, which emits a completed PinReadEvent through
// handlePinComplete.
func (g *Gateway) handlePinDigit(event model.PinDigitEvent) {
	g.Pins.Digit(event.ReaderID, event.Digit)
}

// handlePinComplete is the PIN Collector's CompletionHandler: it runs the
// PIN pipeline for the completed entry.
func (g *Gateway) handlePinComplete(event model.PinReadEvent) {
	g.pinPipeline.Process(context.Background(), event)
}

// Start brings every bus-registered reader online, begins the idle-state
// heartbeat, and scans the plugin directory. It is idempotent with
// respect to already-running collaborators.
func (g *Gateway) Start(ctx context.Context) error {
	readers, err := g.Repo.LoadReaders(ctx)
	if err != nil {
		return fmt.Errorf("gateway: load readers: %w", err)
	}

	if err := g.Plugins.Scan(ctx); err != nil {
		logger.Warn("gateway: initial plugin scan failed", logger.Err(err))
	}

	for _, r := range readers {
		if !r.Enabled {
			continue
		}
		if err := g.Buses.AddDevice(ctx, *r); err != nil {
			logger.Warn("gateway: failed to bring up reader at startup", logger.ReaderID(r.ID), logger.Err(err))
			g.Notify.Broadcast(ctx, model.Notification{
				Kind:      model.NotifyReaderStatus,
				Timestamp: time.Now(),
				Payload:   model.ReaderStatus{ReaderID: r.ID, Online: false, Message: err.Error()},
			})
		}
	}

	g.Buses.Start()

	heartbeatCtx, cancel := context.WithCancel(ctx)
	g.heartbeatCancel = cancel
	go g.Buses.RunHeartbeat(heartbeatCtx)

	watchCtx, watchCancel := context.WithCancel(ctx)
	g.pluginWatchCancel = watchCancel
	go func() {
		if err := g.Plugins.Watch(watchCtx); err != nil {
			logger.Warn("gateway: plugin directory watch stopped", logger.Err(err))
		}
	}()

	logger.Info("gateway started", "readers", len(readers))
	return nil
}

// Stop stops polling and drains in-flight pipelines, giving up on either
// once ctx ends (the Bus Manager also applies its own StopGrace), then shuts
// down every loaded plugin and closes the repository. Stop is idempotent.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.heartbeatCancel != nil {
		g.heartbeatCancel()
	}
	if g.pluginWatchCancel != nil {
		g.pluginWatchCancel()
	}

	stopErr := g.Buses.Stop(ctx)

	// Polling has ceased; drain whatever the pipelines already accepted,
	// until ctx ends, and throw away partial PIN entries.
	drained := make(chan struct{})
	go func() {
		g.cardPipeline.Stop()
		g.pinPipeline.Stop()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		logger.Warn("gateway: pipeline drain did not finish within the shutdown grace period")
		if stopErr == nil {
			stopErr = ctx.Err()
		}
	}
	g.Pins.Stop()

	for _, p := range g.Plugins.Instances() {
		if err := p.Shutdown(ctx); err != nil {
			logger.Warn("gateway: plugin shutdown failed", logger.PluginName(p.Name()), logger.Err(err))
		}
	}

	if err := g.Repo.Close(); err != nil && stopErr == nil {
		stopErr = err
	}

	logger.Info("gateway stopped")
	return stopErr
}

// Notifications returns a new subscriber channel on the gateway's
// notification bus, for a CLI/observer process to consume.
func (g *Gateway) Notifications(id string) *notify.Subscriber {
	return g.Notify.Subscribe(id)
}
