package engine

import (
	"errors"
	"fmt"

	"github.com/blagoySimandov/bundlestore/internal/models"
)

// ValidateBundle checks the invariants a bundle must satisfy at load time.
func ValidateBundle(b *models.Bundle) error {
	if b == nil {
		return errors.New("bundle is nil")
	}
	var errs problems

	if sum := b.PublisherSplit + b.PlatformSplit + b.CharitySplit; sum != 100 {
		errs.add(fmt.Errorf("%w: got %d", ErrInvalidSplit, sum))
	}
	for _, share := range []struct {
		name string
		pct  int
	}{
		{"publisher_split", b.PublisherSplit},
		{"platform_split", b.PlatformSplit},
		{"charity_split", b.CharitySplit},
	} {
		if share.pct < 0 {
			errs.add(fmt.Errorf("%w: %s is %d", ErrInvalidSplit, share.name, share.pct))
		}
	}

	if b.EndsAt.Before(b.StartsAt) {
		errs.add(fmt.Errorf("%w: ends_at before starts_at", ErrInvalidWindow))
	}
	if b.SaleEnd().Before(b.SaleStart()) {
		errs.add(fmt.Errorf("%w: sell_to before sell_from", ErrInvalidWindow))
	}
	if b.MinimumAmount < 0 {
		errs.add(fmt.Errorf("%w: minimum_amount", ErrNegativeAmount))
	}

	seen := make(map[string]bool, len(b.Tiers))
	for _, t := range b.Tiers {
		if seen[t.ID] {
			errs.add(fmt.Errorf("%w: %s", ErrDuplicateTier, t.ID))
		}
		seen[t.ID] = true
		switch t.Type {
		case models.TierTypeBase, models.TierTypeCharity, models.TierTypeUpsell:
		default:
			errs.add(fmt.Errorf("%w: tier %s has type %q", ErrInvalidTierType, t.ID, t.Type))
		}
		if t.Price < 0 {
			errs.add(fmt.Errorf("%w: tier %s", ErrNegativeAmount, t.ID))
		}
	}

	base := CanonicalBaseTiers(b)
	for i := 1; i < len(base); i++ {
		if base[i].Price <= base[i-1].Price {
			errs.add(fmt.Errorf("%w: %s and %s both cost %s",
				ErrNonIncreasingBaseTiers, base[i-1].ID, base[i].ID, base[i].Price.Dollars()))
		}
	}

	for _, p := range b.Products {
		if p.Price < 0 {
			errs.add(fmt.Errorf("%w: product %s", ErrNegativeAmount, p.ID))
		}
		if p.TierID != "" && !seen[p.TierID] {
			errs.add(fmt.Errorf("%w: product %s references %s", ErrUnknownTier, p.ID, p.TierID))
		}
	}

	return errs.err()
}

// ValidateSelection is the strict check applied before a selection is
// submitted for checkout. Quoting never calls it: stale IDs and odd amounts
// degrade gracefully there.
func ValidateSelection(b *models.Bundle, sel Selection) error {
	if b == nil {
		return errors.New("bundle is nil")
	}
	var errs problems

	if sel.BaseAmount < 0 {
		errs.add(fmt.Errorf("%w: base_amount", ErrNegativeAmount))
	}
	if sel.TipAmount < 0 {
		errs.add(fmt.Errorf("%w: tip_amount", ErrNegativeAmount))
	}

	check := func(ids TierSet, want models.TierType) {
		for _, id := range ids.IDs() {
			t, ok := b.Tier(id)
			if !ok || t.Type != want {
				errs.add(fmt.Errorf("%w: %s tier %s", ErrUnknownTier, want, id))
			}
		}
	}
	check(sel.CharityTierIDs, models.TierTypeCharity)
	check(sel.UpsellTierIDs, models.TierTypeUpsell)

	return errs.err()
}
