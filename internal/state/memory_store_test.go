package state

import (
	"context"
	"testing"
	"time"

	"github.com/blagoySimandov/bundlestore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_BundleRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	b := &models.Bundle{ID: "b1", Tiers: []models.Tier{{ID: "t1", Type: models.TierTypeBase, Price: 100}}}
	require.NoError(t, s.SaveBundle(ctx, b))

	got, err := s.GetBundle(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, b, got)

	got.Tiers[0].Price = 999
	again, _ := s.GetBundle(ctx, "b1")
	assert.Equal(t, models.Money(100), again.Tiers[0].Price, "callers get copies")

	_, err = s.GetBundle(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore_ListBundlesNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, s.SaveBundle(ctx, &models.Bundle{ID: id, StartsAt: now.Add(time.Duration(i) * time.Hour)}))
	}

	all, err := s.ListBundles(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "new", all[0].ID)

	page, err := s.ListBundles(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "mid", page[0].ID)
}

func TestInMemoryStore_Stock(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	stock, err := s.GetStock(ctx, "b1", "DE")
	require.NoError(t, err)
	assert.Nil(t, stock, "untracked bundle has unknown stock")

	require.NoError(t, s.SetStock(ctx, "b1", "t1", "DE", 5))

	stock, err = s.GetStock(ctx, "b1", "DE")
	require.NoError(t, err)
	assert.Equal(t, 5, stock["t1"])

	stock, err = s.GetStock(ctx, "b1", "US")
	require.NoError(t, err)
	assert.NotNil(t, stock)
	assert.Empty(t, stock, "tracked bundle, territory without inventory")
}

func TestInMemoryStore_PriorPurchaseReturnsLatest(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	p, err := s.GetPriorPurchase(ctx, "c1", "b1")
	require.NoError(t, err)
	assert.Nil(t, p)

	require.NoError(t, s.SavePurchase(ctx, &models.PriorPurchase{CustomerID: "c1", BundleID: "b1", SnapshotTierPrice: 500, PurchasedAt: now}))
	require.NoError(t, s.SavePurchase(ctx, &models.PriorPurchase{CustomerID: "c1", BundleID: "b1", SnapshotTierPrice: 1500, PurchasedAt: now.Add(time.Hour)}))

	p, err = s.GetPriorPurchase(ctx, "c1", "b1")
	require.NoError(t, err)
	assert.Equal(t, models.Money(1500), p.SnapshotTierPrice)
	assert.NotEmpty(t, p.ID)
}
