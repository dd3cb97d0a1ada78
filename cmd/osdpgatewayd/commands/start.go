package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/osdpgw/gateway/internal/httpapi"
	"github.com/osdpgw/gateway/internal/logger"
	"github.com/osdpgw/gateway/internal/telemetry"
	"github.com/osdpgw/gateway/pkg/config"
	"github.com/osdpgw/gateway/pkg/gateway"
	"github.com/osdpgw/gateway/pkg/osdp/simulator"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the OSDP gateway",
	Long: `Start the OSDP gateway daemon: bring configured readers online,
run the event pipeline, and serve the ambient health/metrics endpoint.

Examples:
  osdpgatewayd start
  osdpgatewayd start --config /etc/osdpgw/config.yaml
  OSDPGW_LOGGING_LEVEL=DEBUG osdpgatewayd start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "osdpgatewayd",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("telemetry init: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "osdpgatewayd",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("profiling init: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	logger.Info("configuration loaded", "source", getConfigSource(GetConfigFile()), "storage", cfg.Storage.Type)

	// The real SIA 2.2 bit-level transport is an external collaborator
	// this repository never implements; the deterministic simulator is
	// the only osdp.Codec available and is what the daemon drives here.
	codec := simulator.New()

	g, err := gateway.New(ctx, cfg, codec)
	if err != nil {
		return fmt.Errorf("gateway init: %w", err)
	}

	if err := g.Start(ctx); err != nil {
		return fmt.Errorf("gateway start: %w", err)
	}

	var httpServer *http.Server
	if cfg.HTTP.Enabled {
		httpServer = &http.Server{Addr: cfg.HTTP.Addr, Handler: httpapi.NewRouter(g, cfg.Metrics.Enabled)}
		go func() {
			logger.Info("ambient http server listening", "addr", cfg.HTTP.Addr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("ambient http server error", logger.Err(err))
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("osdp gateway running, press ctrl+c to stop")
	<-sigChan
	signal.Stop(sigChan)

	logger.Info("shutdown signal received, draining")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer stopCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(stopCtx)
	}

	if err := g.Stop(stopCtx); err != nil {
		logger.Error("gateway stop error", logger.Err(err))
		return err
	}

	logger.Info("gateway stopped gracefully")
	return nil
}
