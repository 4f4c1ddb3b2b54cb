package main

import (
	"context"
	"flag"

	"github.com/blagoySimandov/bundlestore/internal/catalog"
	"github.com/blagoySimandov/bundlestore/internal/config"
	"github.com/blagoySimandov/bundlestore/internal/state"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()

	file := flag.String("file", cfg.CatalogFile, "YAML catalog of bundles, stock and purchases")
	flag.Parse()
	if *file == "" {
		log.Fatal().Msg("Usage: seed -file catalog.yaml")
	}

	c, err := catalog.LoadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid catalog")
	}

	store, err := state.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create PostgreSQL store")
	}
	defer store.Close()

	if err := c.Seed(context.Background(), store); err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}

	log.Info().
		Int("bundles", len(c.Bundles)).
		Int("stock", len(c.Stock)).
		Int("purchases", len(c.Purchases)).
		Msg("Catalog seeded")
}
