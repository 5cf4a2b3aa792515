package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/beaconlabs/beacon-core/internal/api"
	"github.com/beaconlabs/beacon-core/internal/auth"
	"github.com/beaconlabs/beacon-core/internal/config"
	"github.com/beaconlabs/beacon-core/internal/registry"
	"github.com/beaconlabs/beacon-core/internal/services"
	"github.com/beaconlabs/beacon-core/pkg/cache"
	"github.com/beaconlabs/beacon-core/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logger.New(cfg.LogLevel)
	logger.Info("Starting BEACON-CORE", "environment", cfg.Environment, "port", cfg.Port)

	store := config.NewStore(cfg)
	config.Watch(store, func(err error) {
		logger.Error("Configuration reload failed, keeping previous configuration", "error", err)
	})

	// Valkey when configured, in-process store otherwise. A cache outage at
	// startup is not fatal: the fallback keeps the API serving.
	var cacheStore cache.Store
	if cfg.Cache.Addr != "" {
		cacheStore, err = cache.NewValkey(cfg.Cache.Addr, cfg.Cache.DB, cfg.Cache.Password, logger)
		if err != nil {
			logger.Warn("Valkey unavailable, falling back to in-memory store", "addr", cfg.Cache.Addr, "error", err)
			cacheStore = cache.NewMemory(logger)
		} else {
			logger.Info("Valkey cache initialized", "addr", cfg.Cache.Addr)
		}
	} else {
		cacheStore = cache.NewMemory(logger)
	}

	reg := registry.New(logger)
	for _, seed := range cfg.Services {
		reg.Seed(seed.ID, seed.Metadata)
	}
	if len(cfg.Services) > 0 {
		logger.Info("Pre-registered services", "count", len(cfg.Services))
	}

	guard := auth.NewGuard(store)
	alertService := services.NewAlertService(store, logger)
	heartbeatService := services.NewHeartbeatService(guard, reg, alertService, cacheStore, store, logger)

	evaluator := registry.NewEvaluator(reg, store, alertService, logger)
	evaluator.Start()
	defer evaluator.Stop()

	apiServer := api.NewServer(store, logger, cacheStore, reg, heartbeatService, alertService, guard)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	if err := apiServer.Start(ctx); err != nil {
		logger.Fatal("Server failed to start", "error", err)
	}

	logger.Info("BEACON-CORE shutdown complete")
}
