package engine

import "github.com/blagoySimandov/bundlestore/internal/models"

// Unlocks is what a selection gives the customer.
type Unlocks struct {
	CurrentBaseTier  *models.Tier     `json:"current_base_tier"`
	UnlockedTierIDs  []string         `json:"unlocked_tier_ids"`
	UnlockedProducts []models.Product `json:"unlocked_products"`
}

// HasProduct reports whether productID is unlocked.
func (u Unlocks) HasProduct(productID string) bool {
	for _, p := range u.UnlockedProducts {
		if p.ID == productID {
			return true
		}
	}
	return false
}

// ResolveUnlocks finds the highest base tier the base amount pays for and the
// products that unlocks together with the selected charity and upsell tiers.
//
// Base tiers unlock cumulatively. Charity and upsell tiers are independent of
// the base ladder. Selected IDs that no longer exist on the bundle unlock
// nothing.
func ResolveUnlocks(b *models.Bundle, sel Selection) Unlocks {
	var u Unlocks
	if b == nil {
		return u
	}

	current, idx := currentBaseTier(b, sel.BaseAmount)
	u.CurrentBaseTier = current

	unlocked := make(map[string]bool)
	base := CanonicalBaseTiers(b)
	for i := 0; i <= idx; i++ {
		unlocked[base[i].ID] = true
		u.UnlockedTierIDs = append(u.UnlockedTierIDs, base[i].ID)
	}
	for _, t := range CanonicalCharityTiers(b) {
		if sel.CharityTierIDs.Has(t.ID) {
			unlocked[t.ID] = true
			u.UnlockedTierIDs = append(u.UnlockedTierIDs, t.ID)
		}
	}
	for _, t := range CanonicalUpsellTiers(b) {
		if sel.UpsellTierIDs.Has(t.ID) {
			unlocked[t.ID] = true
			u.UnlockedTierIDs = append(u.UnlockedTierIDs, t.ID)
		}
	}

	for _, p := range b.Products {
		if p.TierID == "" || unlocked[p.TierID] {
			u.UnlockedProducts = append(u.UnlockedProducts, p)
		}
	}
	return u
}

// currentBaseTier returns the last canonical base tier priced at or below
// amount together with its canonical index, or nil and -1.
func currentBaseTier(b *models.Bundle, amount models.Money) (*models.Tier, int) {
	if amount <= 0 {
		return nil, -1
	}
	base := CanonicalBaseTiers(b)
	idx := -1
	for i, t := range base {
		if t.Price <= amount {
			idx = i
		}
	}
	if idx < 0 {
		return nil, -1
	}
	t := base[idx]
	return &t, idx
}
