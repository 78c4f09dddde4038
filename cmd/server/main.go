package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rentmail/internal/api"
	"rentmail/internal/config"
	"rentmail/internal/db"
	"rentmail/internal/dispatcher"
	"rentmail/internal/mail"
	"rentmail/internal/metrics"
	"rentmail/internal/queue"
	"rentmail/internal/service"
	"rentmail/internal/template"
)

func main() {

	// ------------------------------------------------
	// Logger
	// ------------------------------------------------
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// ------------------------------------------------
	// Config
	// ------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ------------------------------------------------
	// Root Context + Shutdown
	// ------------------------------------------------
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()

	// ------------------------------------------------
	// Delivery outcome log (optional)
	// ------------------------------------------------
	var outcomes dispatcher.OutcomeLog
	if cfg.DatabaseURL != "" {
		store, err := db.New(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("outcome log connection failed", zap.Error(err))
		}
		defer store.Close()
		outcomes = store
	}

	// ------------------------------------------------
	// Metrics
	// ------------------------------------------------
	metrics.Init()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	metricsServer := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: metricsMux,
	}

	go func() {
		logger.Info("metrics server started", zap.String("port", cfg.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("metrics server error", zap.Error(err))
		}
	}()

	// ------------------------------------------------
	// Template Store + Outbound Channel + Queue
	// ------------------------------------------------
	templates := template.NewStore(cfg.TemplateDir, cfg.Locale, logger)
	channel := mail.New(cfg, logger)
	jobQueue := queue.New()

	// A failed check is logged, not fatal: the service stays up and reports
	// the problem through /healthz until configuration is corrected.
	if err := channel.Verify(ctx); err != nil {
		logger.Error("transport verification failed at startup", zap.Error(err))
	}

	// ------------------------------------------------
	// Email Service + Dispatcher
	// ------------------------------------------------
	svc := service.New(
		templates,
		channel,
		jobQueue,
		cfg.DispatchInterval,
		cfg.MaxAttempts,
		outcomes,
		logger,
	)

	svc.Start()

	// ------------------------------------------------
	// HTTP API Server
	// ------------------------------------------------
	apiHandler := &api.Handler{
		Svc: svc,
		Log: logger,
	}

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /send", apiHandler.SendEmail)
	apiMux.HandleFunc("POST /queue", apiHandler.QueueEmail)
	apiMux.HandleFunc("POST /queue/bulk", apiHandler.QueueBulk)
	apiMux.HandleFunc("GET /queue/status", apiHandler.QueueStatus)
	apiMux.HandleFunc("DELETE /queue/failed", apiHandler.ClearFailed)
	apiMux.HandleFunc("GET /healthz", apiHandler.Health)

	apiServer := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: apiMux,
	}

	go func() {
		logger.Info("api server started", zap.String("port", cfg.APIPort))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("api server error", zap.Error(err))
		}
	}()

	// ------------------------------------------------
	// Wait for shutdown
	// ------------------------------------------------
	<-ctx.Done()

	logger.Info("shutting down services...")

	// Stop the dispatch loop; an in-flight pass finishes first.
	svc.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown failed", zap.Error(err))
	}

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics shutdown failed", zap.Error(err))
	}

	logger.Info("application shutdown complete")
}
