package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blagoySimandov/bundlestore/internal/api"
	"github.com/blagoySimandov/bundlestore/internal/cache"
	"github.com/blagoySimandov/bundlestore/internal/catalog"
	"github.com/blagoySimandov/bundlestore/internal/config"
	"github.com/blagoySimandov/bundlestore/internal/logger"
	"github.com/blagoySimandov/bundlestore/internal/metrics"
	"github.com/blagoySimandov/bundlestore/internal/state"
	"github.com/blagoySimandov/bundlestore/internal/storefront"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)

	store, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer store.Close()

	cached := cache.NewCachedStore(store, cfg.BundleCacheSize, cfg.BundleCacheTTL)

	observer, err := metrics.New(cfg.MetricsNamespace, prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register metrics")
	}

	svc := storefront.NewService(cached, observer, storefront.WithDefaultCountry(cfg.DefaultCountry))
	handler := api.NewBundleHandler(svc, cfg.AllowClockOverride)
	router := api.SetupRoutes(handler, api.RouterConfig{
		AllowedOrigin:  cfg.FE_BASE_URL,
		Observer:       observer,
		MetricsHandler: promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	if cfg.AllowClockOverride {
		log.Warn().Msg("Clock override enabled: quotes accept ?now=")
	}
	log.Info().Str("addr", cfg.ServerAddr).Msg("Server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed to start")
	}

	log.Info().Msg("Server stopped")
}

// openStore uses Postgres unless CATALOG_FILE is set, in which case the
// bundles in that YAML file are served from memory.
func openStore(cfg *config.Config) (state.Store, error) {
	if cfg.CatalogFile == "" {
		return state.NewPostgresStore(cfg.DatabaseURL)
	}

	c, err := catalog.LoadFile(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}
	store := state.NewInMemoryStore()
	if err := c.Seed(context.Background(), store); err != nil {
		return nil, err
	}
	log.Info().
		Str("file", cfg.CatalogFile).
		Int("bundles", len(c.Bundles)).
		Msg("Serving catalog from memory")
	return store, nil
}
