package engine

import (
	"sort"

	"github.com/blagoySimandov/bundlestore/internal/models"
)

// DisplayOrder is how base tiers are laid out on a page. It never affects
// unlock or eligibility math.
type DisplayOrder string

const (
	DisplayCheapestFirst DisplayOrder = "cheapest_first"
	DisplayPriciestFirst DisplayOrder = "priciest_first"
)

// CanonicalBaseTiers returns the bundle's base tiers sorted ascending by price.
func CanonicalBaseTiers(b *models.Bundle) []models.Tier {
	return tiersOfType(b, models.TierTypeBase)
}

// CanonicalCharityTiers returns the charity tiers sorted ascending by price.
func CanonicalCharityTiers(b *models.Bundle) []models.Tier {
	return tiersOfType(b, models.TierTypeCharity)
}

// CanonicalUpsellTiers returns the upsell tiers sorted ascending by price.
func CanonicalUpsellTiers(b *models.Bundle) []models.Tier {
	return tiersOfType(b, models.TierTypeUpsell)
}

// DisplayBaseTiers returns a copy of the canonical base tiers arranged for
// rendering.
func DisplayBaseTiers(b *models.Bundle, order DisplayOrder) []models.Tier {
	tiers := CanonicalBaseTiers(b)
	if order == DisplayPriciestFirst {
		for i, j := 0, len(tiers)-1; i < j; i, j = i+1, j-1 {
			tiers[i], tiers[j] = tiers[j], tiers[i]
		}
	}
	return tiers
}

func tiersOfType(b *models.Bundle, typ models.TierType) []models.Tier {
	if b == nil {
		return nil
	}
	out := make([]models.Tier, 0, len(b.Tiers))
	for _, t := range b.Tiers {
		if t.Type == typ {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func highestBaseTier(b *models.Bundle) (models.Tier, bool) {
	tiers := CanonicalBaseTiers(b)
	if len(tiers) == 0 {
		return models.Tier{}, false
	}
	return tiers[len(tiers)-1], true
}
