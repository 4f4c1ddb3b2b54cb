package engine

import "github.com/blagoySimandov/bundlestore/internal/models"

// Stock maps tier IDs to remaining keys for one territory. A nil Stock means
// the counts are unknown: not fetched yet, not applicable to the product
// type, or the session is anonymous.
type Stock map[string]int

type UnavailableReason string

const (
	ReasonNone    UnavailableReason = ""
	ReasonCountry UnavailableReason = "country"
	ReasonSoldOut UnavailableReason = "soldout"
)

type Availability struct {
	HasAvailableBaseTiers bool              `json:"has_available_base_tiers"`
	Reason                UnavailableReason `json:"reason,omitempty"`
}

// EvaluateAvailability decides whether every base tier can be sold. Unknown
// stock never blocks a purchase. A tier missing from the map means the
// territory received no inventory and wins over a sold-out tier.
func EvaluateAvailability(baseTiers []models.Tier, stock Stock) Availability {
	if stock == nil {
		return Availability{HasAvailableBaseTiers: true}
	}

	missing, soldOut := false, false
	for _, t := range baseTiers {
		count, ok := stock[t.ID]
		switch {
		case !ok:
			missing = true
		case count <= 0:
			soldOut = true
		}
	}

	switch {
	case missing:
		return Availability{Reason: ReasonCountry}
	case soldOut:
		return Availability{Reason: ReasonSoldOut}
	default:
		return Availability{HasAvailableBaseTiers: true}
	}
}

// TierAvailable applies the present-and-positive rule to a single tier. It is
// used for charity and upsell sections and does not affect the base gate.
func TierAvailable(tierID string, stock Stock) bool {
	if stock == nil {
		return true
	}
	return stock[tierID] > 0
}

func tierStock(tiers []models.Tier, stock Stock) map[string]bool {
	out := make(map[string]bool, len(tiers))
	for _, t := range tiers {
		out[t.ID] = TierAvailable(t.ID, stock)
	}
	return out
}
