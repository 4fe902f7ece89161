package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bikeshare-backend/config"
	"bikeshare-backend/internal/api"
	"bikeshare-backend/internal/cache"
	"bikeshare-backend/internal/db"
	"bikeshare-backend/internal/engine"
	"bikeshare-backend/internal/mutator"
	"bikeshare-backend/internal/seed"
	"bikeshare-backend/internal/store"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "bikeshare-backend ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s (backend: %s)", configPath, cfg.Store.Backend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stations, err := seed.Load(cfg.Store.SeedPath)
	if err != nil {
		logger.Fatalf("failed to load seed stations from %s: %v", cfg.Store.SeedPath, err)
	}

	var stationStore store.Store
	switch cfg.Store.Backend {
	case config.BackendDocument:
		gormDB, err := db.Init(&cfg.Database)
		if err != nil {
			logger.Fatalf("failed to initialize database: %v", err)
		}
		stationStore = store.NewDocumentStore(gormDB)
		n, err := seed.Populate(ctx, stationStore, stations)
		if err != nil {
			logger.Fatalf("failed to seed document store: %v", err)
		}
		logger.Printf("document store initialized, %d stations seeded", n)
	default:
		stationStore = store.NewMemoryStore(stations)
		logger.Printf("memory store initialized with %d stations", len(stations))
	}

	resultCache := cache.New(cfg.Cache.TTL, cfg.Cache.CleanupInterval)
	stationEngine := engine.New(stationStore, resultCache,
		engine.WithStandsRange(cfg.Mutator.MinStands, cfg.Mutator.MaxStands))

	if cfg.Mutator.Enabled {
		mutatorSvc := mutator.NewService(stationEngine, cfg.Mutator.IntervalFor(cfg.Store.Backend), cfg.Mutator.PassTimeout)
		go mutatorSvc.Run(ctx)

		go func() {
			err := config.Watch(ctx, configPath, func(next *config.Config) {
				mutatorSvc.SetInterval(next.Mutator.IntervalFor(cfg.Store.Backend))
			})
			if err != nil {
				logger.Printf("config watcher stopped: %v", err)
			}
		}()
	} else {
		logger.Println("Live mutator is disabled. Not starting.")
	}

	router := api.NewRouter(stationEngine, &cfg.Server)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
