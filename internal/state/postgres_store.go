package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/blagoySimandov/bundlestore/internal/db"
	"github.com/blagoySimandov/bundlestore/internal/engine"
	"github.com/blagoySimandov/bundlestore/internal/models"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	store := &PostgresStore{db: db.NewBunPostgresClient(connectionString)}

	ctx := context.Background()
	if err := db.Ping(ctx, store.db); err != nil {
		store.db.Close()
		return nil, err
	}
	if err := store.InitializeDatabase(ctx); err != nil {
		store.db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) InitializeDatabase(ctx context.Context) error {
	tables := []struct {
		name  string
		model any
	}{
		{"bundles", (*models.BundleDB)(nil)},
		{"tiers", (*models.TierDB)(nil)},
		{"products", (*models.ProductDB)(nil)},
		{"tier_stock", (*models.StockDB)(nil)},
		{"purchases", (*models.PurchaseDB)(nil)},
	}
	for _, t := range tables {
		if _, err := s.db.NewCreateTable().Model(t.model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.name, err)
		}
	}

	_, err := s.db.NewCreateIndex().
		Model((*models.PurchaseDB)(nil)).
		Index("idx_purchases_customer_bundle").
		Column("customer_id", "bundle_id").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create customer_bundle index: %w", err)
	}

	_, err = s.db.NewCreateIndex().
		Model((*models.StockDB)(nil)).
		Index("idx_tier_stock_bundle_country").
		Column("bundle_id", "country").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create stock index: %w", err)
	}

	return nil
}

func (s *PostgresStore) GetBundle(ctx context.Context, bundleID string) (*models.Bundle, error) {
	var bundle models.BundleDB
	err := s.db.NewSelect().
		Model(&bundle).
		Relation("Tiers").
		Relation("Products", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("position ASC")
		}).
		Where("b.bundle_id = ?", bundleID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bundle %s: %w", bundleID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bundle: %w", err)
	}
	return bundle.ToBundle(), nil
}

func (s *PostgresStore) ListBundles(ctx context.Context, offset, limit int) ([]*models.Bundle, error) {
	var rows []*models.BundleDB
	query := s.db.NewSelect().
		Model(&rows).
		Relation("Tiers").
		Relation("Products", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("position ASC")
		}).
		Order("starts_at DESC")

	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list bundles: %w", err)
	}

	out := make([]*models.Bundle, len(rows))
	for i, r := range rows {
		out[i] = r.ToBundle()
	}
	return out, nil
}

// SaveBundle replaces the bundle and its tiers and products in one transaction.
func (s *PostgresStore) SaveBundle(ctx context.Context, bundle *models.Bundle) error {
	row := models.BundleFromDomain(bundle)
	now := time.Now()
	row.CreatedAt = now
	row.UpdatedAt = now

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(row).
			On("CONFLICT (bundle_id) DO UPDATE").
			Set("name = EXCLUDED.name").
			Set("starts_at = EXCLUDED.starts_at").
			Set("ends_at = EXCLUDED.ends_at").
			Set("sell_from = EXCLUDED.sell_from").
			Set("sell_to = EXCLUDED.sell_to").
			Set("publisher_split = EXCLUDED.publisher_split").
			Set("platform_split = EXCLUDED.platform_split").
			Set("charity_split = EXCLUDED.charity_split").
			Set("excess_distribution = EXCLUDED.excess_distribution").
			Set("minimum_amount_cents = EXCLUDED.minimum_amount_cents").
			Set("upgrade_window_secs = EXCLUDED.upgrade_window_secs").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to upsert bundle: %w", err)
		}

		if _, err := tx.NewDelete().Model((*models.ProductDB)(nil)).Where("bundle_id = ?", bundle.ID).Exec(ctx); err != nil {
			return fmt.Errorf("failed to clear products: %w", err)
		}
		if _, err := tx.NewDelete().Model((*models.TierDB)(nil)).Where("bundle_id = ?", bundle.ID).Exec(ctx); err != nil {
			return fmt.Errorf("failed to clear tiers: %w", err)
		}

		if len(row.Tiers) > 0 {
			if _, err := tx.NewInsert().Model(&row.Tiers).Exec(ctx); err != nil {
				return fmt.Errorf("failed to insert tiers: %w", err)
			}
		}
		if len(row.Products) > 0 {
			if _, err := tx.NewInsert().Model(&row.Products).Exec(ctx); err != nil {
				return fmt.Errorf("failed to insert products: %w", err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) GetStock(ctx context.Context, bundleID, country string) (engine.Stock, error) {
	tracked, err := s.db.NewSelect().
		Model((*models.StockDB)(nil)).
		Where("bundle_id = ?", bundleID).
		Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check stock tracking: %w", err)
	}
	if !tracked {
		return nil, nil
	}

	var rows []models.StockDB
	err = s.db.NewSelect().
		Model(&rows).
		Where("bundle_id = ?", bundleID).
		Where("country = ?", country).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}

	stock := make(engine.Stock, len(rows))
	for _, r := range rows {
		stock[r.TierID] = r.Remaining
	}
	return stock, nil
}

func (s *PostgresStore) SetStock(ctx context.Context, bundleID, tierID, country string, remaining int) error {
	row := &models.StockDB{
		BundleID:  bundleID,
		TierID:    tierID,
		Country:   country,
		Remaining: remaining,
		UpdatedAt: time.Now(),
	}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (bundle_id, tier_id, country) DO UPDATE").
		Set("remaining = EXCLUDED.remaining").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set stock: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPriorPurchase(ctx context.Context, customerID, bundleID string) (*models.PriorPurchase, error) {
	var row models.PurchaseDB
	err := s.db.NewSelect().
		Model(&row).
		Where("customer_id = ?", customerID).
		Where("bundle_id = ?", bundleID).
		Order("purchased_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prior purchase: %w", err)
	}
	return row.ToPriorPurchase(), nil
}

func (s *PostgresStore) SavePurchase(ctx context.Context, purchase *models.PriorPurchase) error {
	row := models.PurchaseFromDomain(purchase)
	if row.PurchasedAt.IsZero() {
		row.PurchasedAt = time.Now()
	}
	row.CreatedAt = time.Now()

	query := s.db.NewInsert().Model(row)
	if row.ID == uuid.Nil {
		query = query.ExcludeColumn("id")
	}
	if _, err := query.Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("failed to save purchase: %w", err)
	}
	purchase.ID = row.ID.String()
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
