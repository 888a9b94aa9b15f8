package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"seoaudit/internal/config"
	"seoaudit/internal/log"
	"seoaudit/internal/messagebus"
	"seoaudit/internal/metrics"
	"seoaudit/internal/progress"
	"seoaudit/internal/tracing"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
)

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	// Load configuration
	cfg := config.LoadProgress()

	// Setup logging
	logger := log.SetupFromEnv(cfg.Service.Name)
	logger.Info("Starting progress service")

	// Setup tracing
	otelShutdown, err := tracing.SetupOTelSDK(ctx, cfg.Tracing)
	if err != nil {
		logger.Error("Failed to setup OTel SDK", slog.Any("error", err))
		os.Exit(1)
	}
	defer otelShutdown(ctx)

	// Initialize dependencies
	deps, cleanup, err := initializeDependencies(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize dependencies", slog.Any("error", err))
		os.Exit(1)
	}
	defer cleanup()

	service := progress.NewService(deps.Hub, deps.MessageBus, progress.WithLogger(logger))

	srv := progress.NewServer(
		service,
		progress.WithServerConfig(&cfg.HTTP),
		progress.WithServerLogger(logger),
	)

	go func() {
		logger.Info("Starting progress server", slog.String("addr", cfg.HTTP.Addr))
		if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Failed to start server", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutting down progress service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server gracefully", slog.Any("error", err))
	}

	logger.Info("Progress service stopped")
}

type dependencies struct {
	Hub        *progress.Hub
	MessageBus *messagebus.MessageBus
	Metrics    *metrics.ProgressMetrics
	NC         *nats.Conn
}

func initializeDependencies(cfg *config.ProgressConfig, logger *slog.Logger) (*dependencies, func(), error) {
	// Initialize metrics
	m := metrics.NewProgressMetrics()
	m.MustRegisterProgress()
	m.SetServiceInfo(cfg.Service.Version, runtime.Version())

	// Start metrics server
	metricsServer := m.StartMetricsServer(cfg.Metrics.Port)

	// Connect to NATS
	nc, err := nats.Connect(cfg.NATS.URL, nats.Name(cfg.Service.Name))
	if err != nil {
		return nil, nil, err
	}

	// Create message bus
	mb := messagebus.New(nc, m)

	// Create WebSocket hub
	hub := progress.NewHub(
		progress.WithHubMetrics(m),
		progress.WithHubLogger(logger),
		progress.WithHubLimits(cfg.WebSocket.MaxConnections, cfg.WebSocket.WriteTimeout),
	)

	deps := &dependencies{
		Hub:        hub,
		MessageBus: mb,
		Metrics:    m,
		NC:         nc,
	}

	cleanup := func() {
		logger.Info("Cleaning up dependencies")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shutdown metrics server", slog.Any("error", err))
		}

		nc.Close()

		hub.Close()
	}

	return deps, cleanup, nil
}
