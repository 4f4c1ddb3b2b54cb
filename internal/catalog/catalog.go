// Package catalog loads bundle definitions and per-territory stock from YAML
// files so local environments and fixtures can be seeded without a database.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/blagoySimandov/bundlestore/internal/engine"
	"github.com/blagoySimandov/bundlestore/internal/models"
	"github.com/blagoySimandov/bundlestore/internal/state"
	"gopkg.in/yaml.v3"
)

type StockEntry struct {
	BundleID  string `yaml:"bundle_id"`
	TierID    string `yaml:"tier_id"`
	Country   string `yaml:"country"`
	Remaining int    `yaml:"remaining"`
}

type Catalog struct {
	Bundles   []models.Bundle        `yaml:"bundles"`
	Stock     []StockEntry           `yaml:"stock"`
	Purchases []models.PriorPurchase `yaml:"purchases"`
}

func LoadFile(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes a catalog and rejects it if any bundle fails validation or
// stock refers to a tier that does not exist.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	var errs []error
	byID := make(map[string]*models.Bundle, len(c.Bundles))
	for i := range c.Bundles {
		b := &c.Bundles[i]
		if _, dup := byID[b.ID]; dup {
			errs = append(errs, fmt.Errorf("bundle %s: defined twice", b.ID))
			continue
		}
		byID[b.ID] = b
		if err := engine.ValidateBundle(b); err != nil {
			errs = append(errs, fmt.Errorf("bundle %s: %w", b.ID, err))
		}
	}
	for _, s := range c.Stock {
		b, ok := byID[s.BundleID]
		if !ok {
			errs = append(errs, fmt.Errorf("stock for unknown bundle %s", s.BundleID))
			continue
		}
		if _, ok := b.Tier(s.TierID); !ok {
			errs = append(errs, fmt.Errorf("stock for bundle %s: %w: %s", s.BundleID, engine.ErrUnknownTier, s.TierID))
		}
		if s.Country == "" {
			errs = append(errs, fmt.Errorf("stock for bundle %s tier %s: country is required", s.BundleID, s.TierID))
		}
	}
	for _, p := range c.Purchases {
		if _, ok := byID[p.BundleID]; !ok {
			errs = append(errs, fmt.Errorf("purchase for unknown bundle %s", p.BundleID))
		}
		if p.CustomerID == "" {
			errs = append(errs, fmt.Errorf("purchase for bundle %s: customer_id is required", p.BundleID))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &c, nil
}

// Seed writes every bundle, stock entry and purchase into the store.
func (c *Catalog) Seed(ctx context.Context, store state.Store) error {
	for i := range c.Bundles {
		if err := store.SaveBundle(ctx, &c.Bundles[i]); err != nil {
			return fmt.Errorf("save bundle %s: %w", c.Bundles[i].ID, err)
		}
	}
	for _, s := range c.Stock {
		if err := store.SetStock(ctx, s.BundleID, s.TierID, s.Country, s.Remaining); err != nil {
			return fmt.Errorf("set stock %s/%s/%s: %w", s.BundleID, s.TierID, s.Country, err)
		}
	}
	for i := range c.Purchases {
		p := &c.Purchases[i]
		if err := store.SavePurchase(ctx, p); err != nil {
			return fmt.Errorf("save purchase %s/%s: %w", p.CustomerID, p.BundleID, err)
		}
	}
	return nil
}
