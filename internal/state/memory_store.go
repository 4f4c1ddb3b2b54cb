package state

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/blagoySimandov/bundlestore/internal/engine"
	"github.com/blagoySimandov/bundlestore/internal/models"
	"github.com/google/uuid"
)

// InMemoryStore keeps everything in process. It backs local runs seeded from
// a YAML catalog and the handler tests.
type InMemoryStore struct {
	mu        sync.RWMutex
	bundles   map[string]*models.Bundle
	stock     map[string]map[string]engine.Stock // bundle -> country -> stock
	purchases map[string][]*models.PriorPurchase // customer/bundle -> purchases
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		bundles:   make(map[string]*models.Bundle),
		stock:     make(map[string]map[string]engine.Stock),
		purchases: make(map[string][]*models.PriorPurchase),
	}
}

func (s *InMemoryStore) GetBundle(ctx context.Context, bundleID string) (*models.Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bundles[bundleID]
	if !ok {
		return nil, fmt.Errorf("bundle %s: %w", bundleID, ErrNotFound)
	}
	return cloneBundle(b), nil
}

func (s *InMemoryStore) ListBundles(ctx context.Context, offset, limit int) ([]*models.Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*models.Bundle, 0, len(s.bundles))
	for _, b := range s.bundles {
		all = append(all, cloneBundle(b))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].StartsAt.Equal(all[j].StartsAt) {
			return all[i].StartsAt.After(all[j].StartsAt)
		}
		return all[i].ID < all[j].ID
	})

	if offset >= len(all) {
		return []*models.Bundle{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *InMemoryStore) SaveBundle(ctx context.Context, bundle *models.Bundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bundles[bundle.ID] = cloneBundle(bundle)
	return nil
}

func (s *InMemoryStore) GetStock(ctx context.Context, bundleID, country string) (engine.Stock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byCountry, tracked := s.stock[bundleID]
	if !tracked {
		return nil, nil
	}
	out := engine.Stock{}
	for tierID, n := range byCountry[country] {
		out[tierID] = n
	}
	return out, nil
}

func (s *InMemoryStore) SetStock(ctx context.Context, bundleID, tierID, country string, remaining int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byCountry, ok := s.stock[bundleID]
	if !ok {
		byCountry = make(map[string]engine.Stock)
		s.stock[bundleID] = byCountry
	}
	if byCountry[country] == nil {
		byCountry[country] = engine.Stock{}
	}
	byCountry[country][tierID] = remaining
	return nil
}

func (s *InMemoryStore) GetPriorPurchase(ctx context.Context, customerID, bundleID string) (*models.PriorPurchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.PriorPurchase
	for _, p := range s.purchases[purchaseKey(customerID, bundleID)] {
		if latest == nil || p.PurchasedAt.After(latest.PurchasedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (s *InMemoryStore) SavePurchase(ctx context.Context, purchase *models.PriorPurchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if purchase.ID == "" {
		purchase.ID = uuid.New().String()
	}
	if purchase.PurchasedAt.IsZero() {
		purchase.PurchasedAt = time.Now()
	}
	cp := *purchase
	key := purchaseKey(purchase.CustomerID, purchase.BundleID)
	s.purchases[key] = append(s.purchases[key], &cp)
	return nil
}

func (s *InMemoryStore) Close() error {
	return nil
}

func purchaseKey(customerID, bundleID string) string {
	return customerID + "/" + bundleID
}

func cloneBundle(b *models.Bundle) *models.Bundle {
	cp := *b
	cp.Tiers = append([]models.Tier(nil), b.Tiers...)
	cp.Products = append([]models.Product(nil), b.Products...)
	return &cp
}
