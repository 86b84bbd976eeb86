package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/otjlab/otj-engine/internal/analysis"
	"github.com/otjlab/otj-engine/internal/api"
	"github.com/otjlab/otj-engine/internal/catalog"
	"github.com/otjlab/otj-engine/internal/config"
	"github.com/otjlab/otj-engine/internal/events"
	"github.com/otjlab/otj-engine/internal/recurrence"
	"github.com/otjlab/otj-engine/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting otj-engine")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := storage.MigrateFromDSN(ctx, cfg.Database.DSN, cfg.Database.MigrationsDir); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewPostgresRepository(ctx, storage.PostgresConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		MaxIdleConns: int32(cfg.Database.MaxIdleConns),
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("database connected")

	broker, err := events.NewBroker(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer broker.Close()
	slog.Info("event broker connected", "address", cfg.Redis.Address)

	cat := catalog.NewLoader()
	if err := cat.LoadFromDir(cfg.Catalog.Dir); err != nil {
		slog.Error("failed to load spec catalog", "error", err, "dir", cfg.Catalog.Dir)
		os.Exit(1)
	}
	slog.Info("spec catalog loaded", "specs", len(cat.List()))

	generator := recurrence.NewGenerator(repo, broker, cfg.Recurrence.Interval)
	generator.Start(ctx)

	thresholds := analysis.DefaultThresholds()
	thresholds.WarnBelowHours = cfg.Analysis.WarnBelowHours
	thresholds.StaleAfterDays = cfg.Analysis.StaleAfterDays
	thresholds.CoverageWeight = cfg.Analysis.CoverageWeight
	thresholds.QualityWeight = cfg.Analysis.QualityWeight

	server := api.NewServer(repo, cat, broker, thresholds)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("http server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}

	cancel()
	slog.Info("otj-engine stopped")
}
