// Package storefront answers bundle page questions for one customer in one
// territory: what a selection unlocks and costs, whether it can be bought,
// and whether an earlier purchase can be upgraded.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blagoySimandov/bundlestore/internal/engine"
	"github.com/blagoySimandov/bundlestore/internal/logging"
	"github.com/blagoySimandov/bundlestore/internal/metrics"
	"github.com/blagoySimandov/bundlestore/internal/models"
	"github.com/blagoySimandov/bundlestore/internal/state"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrBundleNotFound   = errors.New("bundle not found")
	ErrCustomerRequired = errors.New("customer id is required")
	ErrInvalidBundle    = errors.New("bundle failed validation")
)

// Request identifies who is asking about which bundle and when. A zero Now
// means the service clock. AutoCharity asks Quote to pick the cheapest charity
// tier once a base tier is reached and none is chosen.
type Request struct {
	BundleID    string
	CustomerID  string
	Country     string
	Now         time.Time
	AutoCharity bool
}

type Service struct {
	store          state.Store
	observer       *metrics.Observer
	defaultCountry string
	now            func() time.Time
}

type Option func(*Service)

func WithDefaultCountry(country string) Option {
	return func(s *Service) { s.defaultCountry = country }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store state.Store, observer *metrics.Observer, opts ...Option) *Service {
	s := &Service{
		store:    store,
		observer: observer,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type BundleDetail struct {
	*models.Bundle
	BaseTiers    []models.Tier `json:"base_tiers"`
	DisplayTiers []models.Tier `json:"display_tiers"`
	CharityTiers []models.Tier `json:"charity_tiers"`
	UpsellTiers  []models.Tier `json:"upsell_tiers"`
	Window       engine.Window `json:"window"`
	SaleActive   bool          `json:"sale_active"`
}

type Quote struct {
	Selection engine.Selection `json:"selection"`
	engine.DerivedView
	Upgrade      *engine.Upgrade      `json:"upgrade,omitempty"`
	UpgradeQuote *engine.UpgradeQuote `json:"upgrade_quote,omitempty"`
}

type CartResult struct {
	CartID string `json:"cart_id"`
	engine.Cart
	UpgradeQuote *engine.UpgradeQuote `json:"upgrade_quote,omitempty"`
}

type UpgradeResult struct {
	BundleID    string `json:"bundle_id"`
	HasPurchase bool   `json:"has_purchase"`
	engine.Upgrade
}

func (s *Service) Bundle(ctx context.Context, req Request, order engine.DisplayOrder) (*BundleDetail, error) {
	b, err := s.bundle(ctx, req.BundleID)
	if err != nil {
		return nil, err
	}
	now := s.at(req)
	window := engine.EvaluateWindow(b, now)
	logging.EnrichBundle(ctx, b.ID, string(window.State))

	return &BundleDetail{
		Bundle:       b,
		BaseTiers:    engine.CanonicalBaseTiers(b),
		DisplayTiers: engine.DisplayBaseTiers(b, order),
		CharityTiers: engine.CanonicalCharityTiers(b),
		UpsellTiers:  engine.CanonicalUpsellTiers(b),
		Window:       window,
		SaleActive:   engine.IsSaleActive(b, now),
	}, nil
}

func (s *Service) ListBundles(ctx context.Context, offset, limit int) ([]*models.Bundle, error) {
	bundles, err := s.store.ListBundles(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list bundles: %w", err)
	}
	return bundles, nil
}

// Quote derives the full view for sel. It never fails on domain conditions:
// stale tier ids, missing stock and an unreachable purchase history all
// produce a view. A base amount below the minimum is left out and flagged.
func (s *Service) Quote(ctx context.Context, req Request, sel engine.Selection) (*Quote, error) {
	b, err := s.bundle(ctx, req.BundleID)
	if err != nil {
		return nil, err
	}
	country := s.country(req)
	logging.EnrichCustomer(ctx, req.CustomerID, country)

	now := s.at(req)
	sel = normalize(sel)
	if req.AutoCharity {
		sel = sel.AutoSelectCharity(b)
	}
	view := engine.Derive(b, sel, now, s.stock(ctx, b.ID, country))

	q := &Quote{Selection: sel, DerivedView: view}
	if prior := s.priorPurchase(ctx, req.CustomerID, b.ID); prior != nil {
		up := engine.CanUpgrade(prior, b, now)
		q.Upgrade = &up
		if up.Eligible && up.Flow == engine.FlowPricedDelta {
			uq := engine.QuoteUpgrade(prior, b, sel.ApplyMinimum(b))
			q.UpgradeQuote = &uq
		}
	}

	s.observer.RecordQuote(string(view.Window.State), view.CanPurchase, string(view.Availability.Reason))
	logging.EnrichBundle(ctx, b.ID, string(view.Window.State))
	logging.EnrichQuote(ctx, baseTierID(view), int64(view.Split.Total), view.CanPurchase, string(view.Availability.Reason))
	return q, nil
}

// Cart validates sel strictly and builds the checkout payload. Refusals come
// back as engine errors so callers can tell a closed gate from a bad request.
func (s *Service) Cart(ctx context.Context, req Request, sel engine.Selection) (*CartResult, error) {
	b, err := s.bundle(ctx, req.BundleID)
	if err != nil {
		return nil, err
	}
	country := s.country(req)
	logging.EnrichCustomer(ctx, req.CustomerID, country)

	now := s.at(req)
	view := engine.Derive(b, sel, now, s.stock(ctx, b.ID, country))
	logging.EnrichBundle(ctx, b.ID, string(view.Window.State))

	cart, err := engine.BuildCart(b, sel, view)
	if err != nil {
		reason := RefusalReason(err)
		s.observer.RecordCartRefusal(reason)
		log.Debug().
			Err(err).
			Str("bundleID", b.ID).
			Str("customerID", req.CustomerID).
			Str("reason", reason).
			Msg("Cart refused")
		return nil, err
	}

	res := &CartResult{CartID: uuid.New().String(), Cart: cart}
	if prior := s.priorPurchase(ctx, req.CustomerID, b.ID); prior != nil {
		if up := engine.CanUpgrade(prior, b, now); up.Eligible && up.Flow == engine.FlowPricedDelta {
			uq := engine.QuoteUpgrade(prior, b, sel)
			res.UpgradeQuote = &uq
		}
	}
	logging.EnrichQuote(ctx, cart.BaseTierID, int64(cart.TotalAmount), true, "")
	return res, nil
}

func (s *Service) Upgrade(ctx context.Context, req Request) (*UpgradeResult, error) {
	if req.CustomerID == "" {
		return nil, ErrCustomerRequired
	}
	b, err := s.bundle(ctx, req.BundleID)
	if err != nil {
		return nil, err
	}
	logging.EnrichCustomer(ctx, req.CustomerID, s.country(req))

	prior, err := s.store.GetPriorPurchase(ctx, req.CustomerID, b.ID)
	if err != nil {
		return nil, fmt.Errorf("load purchase for %s: %w", req.CustomerID, err)
	}
	up := engine.CanUpgrade(prior, b, s.at(req))

	outcome := "eligible"
	switch {
	case prior == nil:
		outcome = "no_purchase"
	case !up.Eligible && up.Reason == "":
		outcome = "not_completed"
	case !up.Eligible:
		outcome = up.Reason
	}
	s.observer.RecordUpgradeCheck(outcome)
	logging.EnrichUpgrade(ctx, outcome)

	return &UpgradeResult{BundleID: b.ID, HasPurchase: prior != nil, Upgrade: up}, nil
}

// RefusalReason maps a cart error to a short label for metrics and API
// responses.
func RefusalReason(err error) string {
	var verr *engine.ValidationError
	switch {
	case errors.Is(err, engine.ErrSaleInactive):
		return "sale_inactive"
	case errors.Is(err, engine.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, engine.ErrNothingToPurchase):
		return "nothing_to_purchase"
	case errors.Is(err, engine.ErrBelowMinimum):
		return "below_minimum"
	case errors.Is(err, ErrInvalidBundle):
		return "invalid_bundle"
	case errors.As(err, &verr):
		return "invalid_selection"
	default:
		return "unknown"
	}
}

func (s *Service) bundle(ctx context.Context, bundleID string) (*models.Bundle, error) {
	b, err := s.store.GetBundle(ctx, bundleID)
	if errors.Is(err, state.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrBundleNotFound, bundleID)
	}
	if err != nil {
		return nil, fmt.Errorf("load bundle %s: %w", bundleID, err)
	}
	if err := engine.ValidateBundle(b); err != nil {
		log.Error().
			Err(err).
			Str("bundleID", bundleID).
			Msg("Stored bundle failed validation")
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidBundle, bundleID, err)
	}
	return b, nil
}

// stock treats a failed lookup as unknown inventory so an outage of the
// stock table never blocks a purchase.
func (s *Service) stock(ctx context.Context, bundleID, country string) engine.Stock {
	stock, err := s.store.GetStock(ctx, bundleID, country)
	if err != nil {
		log.Warn().
			Err(err).
			Str("bundleID", bundleID).
			Str("country", country).
			Msg("Stock lookup failed, treating availability as unknown")
		logging.EnrichMetadata(ctx, "stock_lookup_failed", true)
		return nil
	}
	return stock
}

func (s *Service) priorPurchase(ctx context.Context, customerID, bundleID string) *models.PriorPurchase {
	if customerID == "" {
		return nil
	}
	prior, err := s.store.GetPriorPurchase(ctx, customerID, bundleID)
	if err != nil {
		log.Warn().
			Err(err).
			Str("bundleID", bundleID).
			Str("customerID", customerID).
			Msg("Purchase lookup failed, quoting without upgrade")
		logging.EnrichMetadata(ctx, "purchase_lookup_failed", true)
		return nil
	}
	return prior
}

func (s *Service) country(req Request) string {
	if req.Country != "" {
		return req.Country
	}
	return s.defaultCountry
}

func (s *Service) at(req Request) time.Time {
	if !req.Now.IsZero() {
		return req.Now
	}
	return s.now()
}

// normalize clamps negative amounts for quoting. Cart submission does not
// normalize so that ValidateSelection can reject them.
func normalize(sel engine.Selection) engine.Selection {
	if sel.BaseAmount < 0 {
		sel.BaseAmount = 0
	}
	return sel.WithTip(sel.TipAmount)
}

func baseTierID(v engine.DerivedView) string {
	if v.CurrentBaseTier == nil {
		return ""
	}
	return v.CurrentBaseTier.ID
}
