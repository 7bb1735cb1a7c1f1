// Package main is the entry point for the scatter server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atlasmap-sc/scatter/internal/api"
	"github.com/atlasmap-sc/scatter/internal/cache"
	"github.com/atlasmap-sc/scatter/internal/config"
	"github.com/atlasmap-sc/scatter/internal/dataset"
	"github.com/atlasmap-sc/scatter/internal/plot"
	"github.com/atlasmap-sc/scatter/internal/service"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/server.yaml", "Path to configuration file")
	debug := flag.Bool("debug", false, "Log render passes to stderr")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *debug {
		plot.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	log.Printf("Starting scatter server on port %d", cfg.Server.Port)

	// Initialize cache manager (shared across all sessions)
	cacheManager, err := cache.NewManager(cache.Config{
		FrameCacheSizeMB: cfg.Cache.FrameSizeMB,
		FrameTTL:         time.Duration(cfg.Cache.FrameTTLMinutes) * time.Minute,
		QueryCacheSize:   cfg.Cache.QueryCacheSize,
	})
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}
	defer cacheManager.Close()

	// Load datasets
	datasetIDs := cfg.Data.DatasetIDs()
	registry := api.NewDatasetRegistry(cfg.Data.Default, cfg.Server.Title)

	log.Printf("Loading %d dataset(s), default: %s", len(datasetIDs), cfg.Data.Default)

	for _, datasetID := range datasetIDs {
		dc := cfg.Data.Datasets[datasetID]
		ds, err := dataset.Load(datasetID, dc.Path, dataset.Columns{
			X: dc.X, Y: dc.Y, X2: dc.X2, Y2: dc.Y2, Value: dc.Value, Label: dc.Label,
		})
		if err != nil {
			log.Fatalf("Failed to load dataset %q: %v", datasetID, err)
		}
		registry.Register(ds)
		log.Printf("  [%s] %d points from %s (secondary=%v, value=%v)",
			datasetID, ds.Len(), dc.Path, ds.HasSecondary(), ds.HasValue())
	}
	if registry.Default() == nil {
		log.Printf("No datasets configured; sessions cannot be created")
	}

	sessions := service.NewStore(cfg.Server.SessionLimit, time.Duration(cfg.Server.SessionTTLMinutes)*time.Minute)
	defer sessions.Close()
	log.Printf("Sessions: limit=%d, ttl=%dm", cfg.Server.SessionLimit, cfg.Server.SessionTTLMinutes)

	// Set up HTTP router
	router := api.NewRouter(api.RouterConfig{
		Registry:    registry,
		Sessions:    sessions,
		Cache:       cacheManager,
		Plot:        cfg.Plot,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	// Create HTTP server. No write timeout: event streams are long-lived.
	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on http://localhost:%d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
