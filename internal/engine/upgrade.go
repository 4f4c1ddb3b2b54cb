package engine

import (
	"slices"
	"time"

	"github.com/blagoySimandov/bundlestore/internal/models"
)

const (
	ReasonCompleteCollection = "already owns the complete collection with all tiers"
	ReasonUpgradePeriodEnded = "upgrade period has ended"
)

// UpgradeFlow is the kind of follow-up transaction an eligible upgrade uses.
type UpgradeFlow string

const (
	FlowNone UpgradeFlow = ""
	// FlowPricedDelta charges the difference for a higher tier or add-ons.
	FlowPricedDelta UpgradeFlow = "priced_delta"
	// FlowInformational is used for gifts: the buyer is not the one who
	// redeems, so only information is shown.
	FlowInformational UpgradeFlow = "informational"
)

type Upgrade struct {
	Eligible bool        `json:"eligible"`
	Reason   string      `json:"reason,omitempty"`
	Flow     UpgradeFlow `json:"flow,omitempty"`
}

// CanUpgrade decides whether prior can be topped up. Rules apply in order and
// the first match wins; a maxed-out purchase reports the complete collection
// even when the upgrade window has also closed.
func CanUpgrade(prior *models.PriorPurchase, b *models.Bundle, now time.Time) Upgrade {
	if prior == nil || b == nil || prior.Status != models.PurchaseStatusCompleted {
		return Upgrade{}
	}

	if ownsEverything(prior, b) {
		return Upgrade{Reason: ReasonCompleteCollection}
	}

	if upgradeWindowClosed(prior, b, now) {
		return Upgrade{Reason: ReasonUpgradePeriodEnded}
	}

	if prior.IsGift {
		return Upgrade{Eligible: true, Flow: FlowInformational}
	}
	return Upgrade{Eligible: true, Flow: FlowPricedDelta}
}

func ownsEverything(prior *models.PriorPurchase, b *models.Bundle) bool {
	if top, ok := highestBaseTier(b); ok && prior.SnapshotTierPrice < top.Price {
		return false
	}
	if len(CanonicalCharityTiers(b)) > 0 && len(prior.CharityTierIDs) == 0 && prior.CharityAmount <= 0 {
		return false
	}
	for _, t := range CanonicalUpsellTiers(b) {
		for _, p := range b.ProductsOfTier(t.ID) {
			if !prior.OwnsProduct(p.ID) {
				return false
			}
		}
	}
	return true
}

func upgradeWindowClosed(prior *models.PriorPurchase, b *models.Bundle, now time.Time) bool {
	if now.After(b.EndsAt) {
		return true
	}
	if b.UpgradeWindow > 0 && !prior.PurchasedAt.IsZero() {
		return now.After(prior.PurchasedAt.Add(b.UpgradeWindow))
	}
	return false
}

// UpgradeQuote is the price of moving prior to sel.
type UpgradeQuote struct {
	Amount      models.Money     `json:"amount"`
	TargetTier  *models.Tier     `json:"target_tier"`
	NewProducts []models.Product `json:"new_products"`
}

// QuoteUpgrade prices an upgrade from prior to sel: the difference between
// the targeted base tier and the tier already paid for, every selected
// charity tier not donated to before, every selected upsell tier that still
// holds a product the customer does not own, and the tip.
func QuoteUpgrade(prior *models.PriorPurchase, b *models.Bundle, sel Selection) UpgradeQuote {
	var q UpgradeQuote
	if prior == nil || b == nil {
		return q
	}

	unlocks := ResolveUnlocks(b, sel)
	q.TargetTier = unlocks.CurrentBaseTier
	if q.TargetTier != nil && q.TargetTier.Price > prior.SnapshotTierPrice {
		q.Amount += q.TargetTier.Price - prior.SnapshotTierPrice
	}

	for _, t := range CanonicalCharityTiers(b) {
		if sel.CharityTierIDs.Has(t.ID) && !slices.Contains(prior.CharityTierIDs, t.ID) {
			q.Amount += t.Price
		}
	}
	for _, t := range CanonicalUpsellTiers(b) {
		if sel.UpsellTierIDs.Has(t.ID) && !ownsAll(prior, b.ProductsOfTier(t.ID)) {
			q.Amount += t.Price
		}
	}

	for _, p := range unlocks.UnlockedProducts {
		if !prior.OwnsProduct(p.ID) {
			q.NewProducts = append(q.NewProducts, p)
		}
	}
	if sel.TipAmount > 0 {
		q.Amount += sel.TipAmount
	}
	return q
}

func ownsAll(prior *models.PriorPurchase, products []models.Product) bool {
	if len(products) == 0 {
		return false
	}
	for _, p := range products {
		if !prior.OwnsProduct(p.ID) {
			return false
		}
	}
	return true
}
