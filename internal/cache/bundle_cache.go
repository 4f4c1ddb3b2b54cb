package cache

import (
	"context"
	"time"

	"github.com/blagoySimandov/bundlestore/internal/models"
	"github.com/blagoySimandov/bundlestore/internal/state"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultCacheSize = 256
	defaultCacheTTL  = 30 * time.Second
)

type entry struct {
	bundle   *models.Bundle
	storedAt time.Time
}

// CachedStore serves bundle definitions from an LRU in front of another
// Store. Stock and purchases always go to the delegate.
type CachedStore struct {
	state.Store
	cache *lru.Cache[string, entry]
	ttl   time.Duration
	now   func() time.Time
}

func NewCachedStore(delegate state.Store, size int, ttl time.Duration) *CachedStore {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	// lru.New only errors on a non-positive size.
	c, _ := lru.New[string, entry](size)
	return &CachedStore{Store: delegate, cache: c, ttl: ttl, now: time.Now}
}

func (s *CachedStore) GetBundle(ctx context.Context, bundleID string) (*models.Bundle, error) {
	if e, ok := s.cache.Get(bundleID); ok {
		if s.now().Sub(e.storedAt) < s.ttl {
			return clone(e.bundle), nil
		}
		s.cache.Remove(bundleID)
	}

	b, err := s.Store.GetBundle(ctx, bundleID)
	if err != nil {
		return nil, err
	}
	s.cache.Add(bundleID, entry{bundle: clone(b), storedAt: s.now()})
	return b, nil
}

func (s *CachedStore) SaveBundle(ctx context.Context, bundle *models.Bundle) error {
	if err := s.Store.SaveBundle(ctx, bundle); err != nil {
		return err
	}
	s.Invalidate(bundle.ID)
	return nil
}

func (s *CachedStore) Invalidate(bundleID string) {
	s.cache.Remove(bundleID)
}

func (s *CachedStore) Len() int {
	return s.cache.Len()
}

func clone(b *models.Bundle) *models.Bundle {
	cp := *b
	cp.Tiers = append([]models.Tier(nil), b.Tiers...)
	cp.Products = append([]models.Product(nil), b.Products...)
	return &cp
}
