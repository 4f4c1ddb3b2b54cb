package state

import (
	"context"
	"errors"

	"github.com/blagoySimandov/bundlestore/internal/engine"
	"github.com/blagoySimandov/bundlestore/internal/models"
)

var ErrNotFound = errors.New("not found")

type Store interface {
	GetBundle(ctx context.Context, bundleID string) (*models.Bundle, error)
	ListBundles(ctx context.Context, offset, limit int) ([]*models.Bundle, error)
	SaveBundle(ctx context.Context, bundle *models.Bundle) error

	// GetStock returns remaining keys per tier for a territory. It returns a
	// nil Stock when no inventory is tracked for the bundle at all.
	GetStock(ctx context.Context, bundleID, country string) (engine.Stock, error)
	SetStock(ctx context.Context, bundleID, tierID, country string, remaining int) error

	// GetPriorPurchase returns the customer's latest purchase of the bundle,
	// or nil when there is none.
	GetPriorPurchase(ctx context.Context, customerID, bundleID string) (*models.PriorPurchase, error)
	SavePurchase(ctx context.Context, purchase *models.PriorPurchase) error

	Close() error
}
