package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cartcompare/backend/config"
	httpDelivery "github.com/cartcompare/backend/internal/delivery/http"
	"github.com/cartcompare/backend/internal/domain"
	"github.com/cartcompare/backend/internal/infrastructure/cache"
	"github.com/cartcompare/backend/internal/infrastructure/providers"
	"github.com/cartcompare/backend/internal/infrastructure/store"
	"github.com/cartcompare/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting CartCompare Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache TTL: %s", cfg.Cache.TTL)
	log.Printf("Mock providers: %v", cfg.Providers.UseMocks)

	// Initialize infrastructure dependencies
	memoryCache := cache.NewMemoryCache()

	listingStore, err := store.New(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Failed to open listing store at %s: %v", cfg.Store.Path, err)
	}
	defer listingStore.Close()
	log.Printf("Listing store: %s", cfg.Store.Path)

	registry := providers.NewRegistry(providers.Config{
		UseMocks:       cfg.Providers.UseMocks,
		FetchPerSecond: cfg.Providers.FetchPerSecond,
	})

	// Initialize usecase layer
	var repo domain.ListingRepository = listingStore
	catalog := usecase.NewCatalogService(
		registry.Sources(),
		repo,
		memoryCache,
		usecase.CatalogConfig{
			CacheTTL:           cfg.Cache.TTL,
			MergeThreshold:     cfg.Matching.MergeThreshold,
			EnableDebugLogging: cfg.Matching.EnableDebugLogging,
		},
	)

	log.Printf("Matching: threshold=%.2f, debug=%v",
		cfg.Matching.MergeThreshold, cfg.Matching.EnableDebugLogging)

	// Background prefetch keeps the snapshot warm
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	refresher := usecase.NewRefresher(catalog, cfg.Providers.DefaultCategory, cfg.Providers.RefreshInterval)
	go refresher.Run(ctx)
	log.Printf("Refresh interval: %s", cfg.Providers.RefreshInterval)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(catalog, repo)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
