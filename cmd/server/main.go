package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/setdecoder/internal/config"
	"github.com/JonMunkholm/setdecoder/internal/history"
	"github.com/JonMunkholm/setdecoder/internal/logging"
	"github.com/JonMunkholm/setdecoder/internal/metrics"
	"github.com/JonMunkholm/setdecoder/internal/web"
	"github.com/JonMunkholm/setdecoder/internal/workspace"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load .env file if it exists (overrides existing env vars)
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"history_enabled", cfg.Database.Enabled(),
		"empty_set_policy", cfg.Decode.EmptyBundlePolicy,
		"column_preset", cfg.Decode.ColumnPreset,
		"rate_limit_per_minute", cfg.Security.RateLimitPerMinute,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	opts, err := workspace.OptionsFromConfig(cfg.Decode, history.OriginWeb)
	if err != nil {
		logger.Error("invalid decode settings", "error", err)
		os.Exit(1)
	}

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	var (
		recorder history.Recorder
		runs     web.RunLister
	)
	if cfg.Database.Enabled() {
		pool, err := history.Open(jobCtx, cfg.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		logger.Info("connected to database", "name", history.DatabaseName(cfg.Database.URL))

		if err := history.Migrate(jobCtx, pool); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}

		store := history.NewStore(pool)
		recorder, runs = store, store

		job := history.NewRetentionJob(store, history.RetentionConfig{
			RetentionDays: cfg.History.RetentionDays,
			CheckInterval: cfg.History.CheckInterval,
		}, logger, m)
		go job.Start(jobCtx)
	} else {
		logger.Info("run history disabled (no DATABASE_URL)")
	}

	ws := workspace.New(logger, m, recorder, opts)
	server := web.NewServer(ws, cfg, runs, reg, logger)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
