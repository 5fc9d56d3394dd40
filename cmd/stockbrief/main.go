// Command stockbrief runs the stock-analysis tool service: it validates
// configuration, wires the provider adapters, registers the tool's
// capabilities for discovery, and serves them until shutdown.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/itsneelabh/stockbrief/internal/alphavantage"
	"github.com/itsneelabh/stockbrief/internal/analysis"
	"github.com/itsneelabh/stockbrief/internal/config"
	"github.com/itsneelabh/stockbrief/internal/logging"
	"github.com/itsneelabh/stockbrief/internal/openrouter"
	"github.com/itsneelabh/stockbrief/internal/registry"
	"github.com/itsneelabh/stockbrief/internal/stocktool"
	"github.com/itsneelabh/stockbrief/internal/telemetry"
)

func main() {
	// Local development convenience; absence of a .env file is fine.
	_ = godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logOpts := []logging.Option{logging.WithLevel(cfg.Logging.Level)}
	if cfg.Logging.Format != "" {
		logOpts = append(logOpts, logging.WithFormat(cfg.Logging.Format))
	}
	logger := logging.NewLogger(cfg.Name, logOpts...)

	if err := telemetry.Initialize(telemetry.Config{
		ServiceName:  cfg.Name,
		Endpoint:     cfg.Telemetry.Endpoint,
		StdoutExport: cfg.Telemetry.StdoutExport,
	}); err != nil {
		logger.Warn("Telemetry initialization failed, continuing without traces", map[string]interface{}{
			"error": err,
		})
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(ctx); err != nil {
			logger.Warn("Telemetry shutdown error", map[string]interface{}{"error": err})
		}
	}()

	httpClient := telemetry.NewTracedHTTPClient(cfg.HTTP.ClientTimeout)

	market := alphavantage.NewClient(cfg.AlphaVantage.APIKey, cfg.AlphaVantage.BaseURL, httpClient, logger)
	summarizer := openrouter.NewClient(
		cfg.OpenRouter.APIKey,
		cfg.OpenRouter.BaseURL,
		cfg.OpenRouter.Model,
		cfg.OpenRouter.MaxTokens,
		httpClient,
		logger,
	)
	analyzer := analysis.NewAnalyzer(market, market, market, summarizer, logger)

	svc, err := stocktool.New(market, analyzer, logger)
	if err != nil {
		log.Fatalf("Failed to create tool: %v", err)
	}
	svc.ReadTimeout = cfg.HTTP.ReadTimeout
	svc.WriteTimeout = cfg.HTTP.WriteTimeout
	svc.ShutdownTimeout = cfg.HTTP.ShutdownTimeout

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received", nil)
		cancel()
	}()

	if reg := buildRegistry(cfg, logger); reg != nil {
		info := &registry.ServiceInfo{
			ID:           svc.ID,
			Name:         svc.Name,
			Type:         "tool",
			Description:  stocktool.ServiceDescription,
			Address:      serviceAddress(),
			Port:         cfg.Port,
			Capabilities: svc.GetCapabilities(),
		}
		regCtx, regCancel := context.WithTimeout(ctx, 10*time.Second)
		err := reg.Register(regCtx, info)
		regCancel()
		if err != nil {
			logger.Error("Service registration failed, running unregistered", map[string]interface{}{
				"error": err,
			})
		} else {
			registry.StartHeartbeat(ctx, reg, info, cfg.Registry.HeartbeatInterval, logger)
			defer func() {
				unregCtx, unregCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer unregCancel()
				if err := reg.Unregister(unregCtx, svc.ID); err != nil {
					logger.Warn("Unregister failed", map[string]interface{}{"error": err})
				}
			}()
		}
	}

	handler := svc.Handler(telemetry.TracingMiddleware(cfg.Name))
	if err := svc.Start(ctx, cfg.Port, handler); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Server error: %v", err)
	}
	logger.Info("Shutdown complete", nil)
}

// buildRegistry selects the registry backend: Redis in production, in-memory
// mock in development, none when registration is disabled.
func buildRegistry(cfg *config.Config, logger logging.Logger) registry.Registry {
	if cfg.Development.MockRegistry {
		logger.Info("Using mock registry", map[string]interface{}{"reason": "development_mode"})
		return registry.NewMockRegistry()
	}
	if !cfg.Registry.Enabled {
		logger.Info("Registry disabled, running standalone", nil)
		return nil
	}
	reg, err := registry.NewRedisRegistry(cfg.Registry.RedisURL, cfg.Namespace, cfg.Registry.TTL, logger)
	if err != nil {
		logger.Error("Redis registry unavailable, running standalone", map[string]interface{}{
			"error": err,
		})
		return nil
	}
	return reg
}

func serviceAddress() string {
	if addr := os.Getenv("STOCKBRIEF_ADDRESS"); addr != "" {
		return addr
	}
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "localhost"
}
