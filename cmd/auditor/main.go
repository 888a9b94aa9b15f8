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

	"seoaudit/internal/api"
	"seoaudit/internal/audit"
	"seoaudit/internal/config"
	"seoaudit/internal/log"
	"seoaudit/internal/messagebus"
	"seoaudit/internal/metrics"
	"seoaudit/internal/tracing"
	"seoaudit/internal/worker"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
)

func main() {
	// A missing .env is fine, the environment is used as is
	_ = godotenv.Load()

	cfg := config.Load()
	log := log.SetupFromEnv(cfg.Service.Name)

	log.Info("Starting auditor service", slog.String("version", cfg.Service.Version))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown, err := tracing.SetupOTelSDK(ctx, cfg.Tracing)
	if err != nil {
		log.Error("Failed to setup tracing", slog.Any("error", err))
		os.Exit(1)
	}
	defer shutdown(context.Background())

	deps, cleanup, err := initializeDependencies(cfg)
	if err != nil {
		log.Error("Failed to initialize dependencies", slog.Any("error", err))
		os.Exit(1)
	}
	defer cleanup()

	auditor := audit.NewAuditor(
		audit.WithHTTPClient(deps.client),
		audit.WithMetrics(deps.metrics),
		audit.WithLogger(log),
		audit.WithConfig(cfg),
	)

	w := worker.New(auditor, deps.bus, worker.WithLogger(log))

	sub, err := deps.bus.SubscribeToAuditRequest(cfg.NATS.QueueGroup, w.ProcessAuditRequest)
	if err != nil {
		log.Error("Failed to subscribe to audit requests", slog.Any("error", err))
		os.Exit(1)
	}
	defer sub.Unsubscribe()

	a := api.NewAPI(auditor, deps.bus, deps.metrics, log, cfg)

	go func() {
		if err := a.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Failed to start API server", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	log.Info("Auditor service is running")

	waitForShutdown(log)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := a.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shutdown API server gracefully", slog.Any("error", err))
	}

	log.Info("Auditor service stopped")
}

type dependencies struct {
	bus     *messagebus.MessageBus
	client  *http.Client
	metrics *metrics.AuditorMetrics
}

// initializeDependencies initializes individual dependencies
func initializeDependencies(cfg *config.Config) (*dependencies, func(), error) {
	// Initialize metrics
	m := metrics.NewAuditorMetrics()
	m.MustRegisterAuditor()
	m.SetServiceInfo(cfg.Service.Version, runtime.Version())

	// Start metrics server
	srv := m.StartMetricsServer(cfg.Metrics.Port)

	// Initialize HTTP client with tracing
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.MaxIdleConnsPerHost = cfg.HTTPClient.MaxIdleConnsPerHost

	client := &http.Client{
		Timeout:   cfg.HTTPClient.Timeout,
		Transport: tracing.HTTPClientMiddleware()(base),
	}

	// Initialize NATS connection
	nc, err := nats.Connect(cfg.NATS.URL, nats.Name(cfg.Service.Name))
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		nc.Drain()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if srv != nil {
			srv.Shutdown(ctx)
		}
	}

	return &dependencies{
		bus:     messagebus.New(nc, m),
		client:  client,
		metrics: m,
	}, cleanup, nil
}

// waitForShutdown waits for a shutdown signal
func waitForShutdown(log *slog.Logger) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch

	log.Info("Shutting down auditor service", slog.String("signal", sig.String()))
}
