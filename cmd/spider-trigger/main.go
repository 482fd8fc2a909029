// spider-trigger is the HTTP service external schedulers call to launch spider batches.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"spidertrigger/internal/api"
	"spidertrigger/internal/config"
	"spidertrigger/internal/health"
	"spidertrigger/internal/notify"
	"spidertrigger/internal/observability"
	"spidertrigger/internal/runtime/docker"
	"spidertrigger/internal/store"
	"spidertrigger/internal/trigger"
	"syscall"
	"time"
)

func main() {
	svcCfg := config.LoadServiceConfig()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: svcCfg.LogLevel})))

	if err := run(svcCfg); err != nil {
		slog.Error("Service failed", "error", err)
		os.Exit(1)
	}
}

func run(svcCfg *config.ServiceConfig) error {
	ctx := context.Background()

	// Load configuration
	rtCfg, err := config.LoadRuntimeConfig(config.GetEnv("CONFIG_FILE", ""))
	if err != nil {
		return err
	}
	dbCfg, err := store.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	notifyCfg := notify.LoadConfigFromEnv(svcCfg.ReportWebhookURL, svcCfg.ReportWebhookKey)

	// Setup metrics
	metrics, metricsHandler, err := observability.NewMetrics(ctx)
	if err != nil {
		return err
	}

	// Open the spider repository
	st, err := store.Open(ctx, dbCfg)
	if err != nil {
		return err
	}
	defer st.Close()

	dialer := docker.NewDialer(rtCfg)
	slog.Info("Docker runtime configured",
		"endpoint", rtCfg.Endpoint,
		"volumes", len(rtCfg.Volumes),
		"pullImages", rtCfg.PullImages,
	)

	// Optional report webhook
	var notifier *notify.Notifier
	triggerCfg := trigger.Config{
		Repositories: st,
		Runtimes:     dialer,
		Volumes:      rtCfg.Volumes,
		Metrics:      metrics,
	}
	if notifyCfg.Enabled() {
		notifier = notify.New(notifyCfg, metrics)
		triggerCfg.Reporter = notifier
	} else {
		slog.Info("Report webhook disabled - no REPORT_WEBHOOK_URL configured")
	}

	orchestrator, err := trigger.New(triggerCfg)
	if err != nil {
		return err
	}

	healthChecker := health.NewChecker(map[string]health.ReadinessChecker{
		"runtime":  dialer,
		"database": health.CheckFunc(st.Ping),
	})

	router := api.NewRouter(api.RouterConfig{
		Triggers:      orchestrator,
		Containers:    st,
		Metrics:       metrics,
		HealthChecker: healthChecker,
		APIKey:        svcCfg.APIKey,
	})

	if svcCfg.APIKey != "" {
		slog.Info("API authentication enabled")
	} else {
		slog.Warn("API authentication disabled - no API_KEY_FILE configured")
	}

	// A trigger call spans an image pull, a create and a start, each with its own deadline.
	apiServer := &http.Server{
		Addr:         ":" + svcCfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: rtCfg.PullTimeout + 2*rtCfg.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", metricsHandler)
	metricsServer := &http.Server{
		Addr:         ":" + svcCfg.MetricsPort,
		Handler:      metricsMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 2)

	go func() {
		slog.Info("Starting API server", "port", svcCfg.Port)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	go func() {
		slog.Info("Starting metrics server", "port", svcCfg.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// shutdown closes both servers gracefully
	shutdown := func(timeout time.Duration) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("API server shutdown error", "error", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server shutdown error", "error", err)
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("Received shutdown signal", "signal", sig)
	case err := <-serverErr:
		slog.Error("Server failed to start", "error", err)
		shutdown(5 * time.Second)
		return err
	}

	// Phase 1: fail readiness so schedulers and load balancers stop routing triggers
	healthChecker.SetShuttingDown()
	if svcCfg.ShutdownDrainWait > 0 {
		slog.Info("Waiting for traffic to drain", "duration", svcCfg.ShutdownDrainWait)
		time.Sleep(svcCfg.ShutdownDrainWait)
	}

	// Phase 2: finish in-flight triggers so no record is left without its outcome
	slog.Info("Starting graceful shutdown")
	shutdown(apiServer.WriteTimeout)

	// Phase 3: deliver queued reports
	if notifier != nil {
		slog.Info("Draining report notifier")
		notifyCtx, notifyCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer notifyCancel()
		if err := notifier.Close(notifyCtx); err != nil {
			slog.Warn("Notifier shutdown error", "error", err)
		}

		stats := notifier.Stats()
		slog.Info("Notifier stats",
			"delivered", stats.Delivered,
			"failed", stats.Failed,
			"dropped", stats.Dropped,
		)
	}

	// Launched containers keep running; they never depend on this service.
	slog.Info("Shutdown complete")
	return nil
}
