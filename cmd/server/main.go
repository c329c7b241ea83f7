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

	"github.com/georglynx/grocerycompare/config"
	httpDelivery "github.com/georglynx/grocerycompare/internal/delivery/http"
	"github.com/georglynx/grocerycompare/internal/domain"
	"github.com/georglynx/grocerycompare/internal/infrastructure/cache"
	"github.com/georglynx/grocerycompare/internal/infrastructure/fetcher"
	"github.com/georglynx/grocerycompare/internal/infrastructure/selector"
	"github.com/georglynx/grocerycompare/internal/infrastructure/trolley"
	"github.com/georglynx/grocerycompare/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting GroceryCompare Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache: type=%s ttl=%s", cfg.Cache.Type, cfg.Cache.TTL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize infrastructure dependencies
	var closers []func()

	fetchOptions := fetcher.Options{
		Timeout:           cfg.Scraper.Timeout,
		UserAgent:         cfg.Scraper.UserAgent,
		AcceptLanguage:    cfg.Scraper.AcceptLanguage,
		RequestsPerSecond: cfg.Scraper.RequestsPerSecond,
		Burst:             cfg.Scraper.Burst,
	}

	var pageFetcher domain.PageFetcher
	switch cfg.Scraper.Mode {
	case "browser":
		browser := fetcher.NewBrowserFetcher(cfg.Scraper.BrowserBin, fetchOptions)
		closers = append(closers, func() {
			if err := browser.Close(); err != nil {
				log.Printf("Browser shutdown: %v", err)
			}
		})
		pageFetcher = browser
	default:
		httpFetcher := fetcher.NewHTTPFetcher(fetchOptions)
		// Enable debug mode in development environment
		if cfg.Scraper.Debug || cfg.Server.Environment == "development" {
			httpFetcher.SetDebug(true)
			log.Printf("Fetcher debug mode enabled")
		}
		pageFetcher = httpFetcher
	}
	log.Printf("Scraper: mode=%s base=%s rps=%.1f", cfg.Scraper.Mode, cfg.Scraper.BaseURL, cfg.Scraper.RequestsPerSecond)

	var cacheRepo domain.CacheRepository
	switch cfg.Cache.Type {
	case "lru":
		cacheRepo = cache.NewLRUCache(cfg.Cache.Size, cfg.Cache.TTL)
	default:
		memoryCache := cache.NewMemoryCache()
		closers = append(closers, memoryCache.Close)
		cacheRepo = memoryCache
	}

	source := trolley.NewClient(pageFetcher, cfg.Scraper.BaseURL, cfg.Scraper.ListingTemplates)

	candidateSelector := selector.New(ctx, cfg.Selector.Provider, selector.GeminiOptions{
		APIKey:        cfg.Selector.APIKey,
		Model:         cfg.Selector.Model,
		Timeout:       cfg.Selector.Timeout,
		TopK:          cfg.Selector.TopK,
		MaxCandidates: cfg.Selector.MaxCandidates,
	})
	if gemini, ok := candidateSelector.(*selector.GeminiSelector); ok {
		closers = append(closers, func() { _ = gemini.Close() })
	}
	log.Printf("Selector: provider=%s top_k=%d fuzzy=%v", cfg.Selector.Provider, cfg.Selector.TopK, cfg.Selector.FuzzyMatching)

	// Initialize usecase layer
	searchService := usecase.NewSearchService(
		source,
		candidateSelector,
		cacheRepo,
		usecase.SearchServiceConfig{
			CacheTTL:          cfg.Cache.TTL,
			TopK:              cfg.Selector.TopK,
			DetailConcurrency: cfg.Scraper.DetailConcurrency,
			DefaultMaxResults: cfg.Scraper.DefaultMaxResults,
			MaxResultsLimit:   cfg.Scraper.MaxResultsLimit,
			Relevance: usecase.RelevanceConfig{
				EnableFuzzyMatching: cfg.Selector.FuzzyMatching,
				EnableDebugLogging:  cfg.Scraper.Debug,
			},
		},
	)
	basketService := usecase.NewBasketService(searchService, 2)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(searchService, basketService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	for _, closeFn := range closers {
		closeFn()
	}
	log.Printf("Server stopped")
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
