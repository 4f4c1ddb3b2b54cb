package engine

import (
	"time"

	"github.com/blagoySimandov/bundlestore/internal/models"
)

// DerivedView is everything a bundle page renders for one selection. It is
// recomputed in full on every input change and never patched.
type DerivedView struct {
	BundleID string `json:"bundle_id"`
	Unlocks
	Split        Split           `json:"split"`
	Window       Window          `json:"window"`
	SaleActive   bool            `json:"sale_active"`
	Availability Availability    `json:"availability"`
	CharityStock map[string]bool `json:"charity_tier_available"`
	UpsellStock  map[string]bool `json:"upsell_tier_available"`
	// BelowMinimum is set when the submitted base amount was under the
	// bundle minimum and was left out of the unlocks and split.
	BelowMinimum bool `json:"below_minimum"`
	CanPurchase  bool `json:"can_purchase"`
}

// Derive runs the whole engine for one set of inputs. stock may be nil.
func Derive(b *models.Bundle, sel Selection, now time.Time, stock Stock) DerivedView {
	if b == nil {
		return DerivedView{Window: EvaluateWindow(nil, now)}
	}

	below := sel.BelowMinimum(b)
	sel = sel.ApplyMinimum(b)

	v := DerivedView{
		BundleID:     b.ID,
		Unlocks:      ResolveUnlocks(b, sel),
		Split:        ComputeSplit(b, sel),
		Window:       EvaluateWindow(b, now),
		SaleActive:   IsSaleActive(b, now),
		Availability: EvaluateAvailability(CanonicalBaseTiers(b), stock),
		CharityStock: tierStock(CanonicalCharityTiers(b), stock),
		UpsellStock:  tierStock(CanonicalUpsellTiers(b), stock),
		BelowMinimum: below,
	}
	v.CanPurchase = v.SaleActive && v.Availability.HasAvailableBaseTiers && v.Split.Total > 0 && !below
	return v
}
