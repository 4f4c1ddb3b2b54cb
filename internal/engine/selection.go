package engine

import (
	"encoding/json"
	"sort"

	"github.com/blagoySimandov/bundlestore/internal/models"
)

// TierSet is a set of tier IDs. It encodes to JSON as a sorted array.
type TierSet map[string]struct{}

func NewTierSet(ids ...string) TierSet {
	s := make(TierSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s TierSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the members sorted.
func (s TierSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s TierSet) clone() TierSet {
	out := make(TierSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

func (s TierSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

func (s *TierSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewTierSet(ids...)
	return nil
}

// Selection is a customer's in-progress choices for one bundle. It is a value:
// every transition returns a new Selection and leaves the receiver untouched.
type Selection struct {
	BaseAmount     models.Money `json:"base_amount"`
	CharityTierIDs TierSet      `json:"charity_tier_ids"`
	UpsellTierIDs  TierSet      `json:"upsell_tier_ids"`
	TipAmount      models.Money `json:"tip_amount"`
}

func NewSelection() Selection {
	return Selection{
		CharityTierIDs: TierSet{},
		UpsellTierIDs:  TierSet{},
	}
}

func (s Selection) copy() Selection {
	s.CharityTierIDs = s.CharityTierIDs.clone()
	s.UpsellTierIDs = s.UpsellTierIDs.clone()
	return s
}

// WithBaseAmount sets the base contribution. Negative input clamps to zero.
// A non-zero amount below minimum is not applied and the previous amount is
// kept, the same way a half-typed custom amount is ignored.
func (s Selection) WithBaseAmount(amount, minimum models.Money) Selection {
	out := s.copy()
	switch {
	case amount <= 0:
		out.BaseAmount = 0
	case amount < minimum:
	default:
		out.BaseAmount = amount
	}
	return out
}

// BelowMinimum reports whether a positive base amount is under the bundle
// minimum.
func (s Selection) BelowMinimum(b *models.Bundle) bool {
	return b != nil && s.BaseAmount > 0 && s.BaseAmount < b.MinimumAmount
}

// ApplyMinimum zeroes a base amount that is below the bundle minimum.
func (s Selection) ApplyMinimum(b *models.Bundle) Selection {
	if !s.BelowMinimum(b) {
		return s
	}
	out := s.copy()
	out.BaseAmount = 0
	return out
}

// WithBaseTier sets the base contribution to exactly the tier's price.
func (s Selection) WithBaseTier(t models.Tier) Selection {
	out := s.copy()
	out.BaseAmount = t.Price
	return out
}

func (s Selection) WithTip(amount models.Money) Selection {
	out := s.copy()
	if amount < 0 {
		amount = 0
	}
	out.TipAmount = amount
	return out
}

func (s Selection) SelectCharity(tierID string) Selection {
	out := s.copy()
	out.CharityTierIDs[tierID] = struct{}{}
	return out
}

func (s Selection) DeselectCharity(tierID string) Selection {
	out := s.copy()
	delete(out.CharityTierIDs, tierID)
	return out
}

func (s Selection) ToggleCharity(tierID string) Selection {
	if s.CharityTierIDs.Has(tierID) {
		return s.DeselectCharity(tierID)
	}
	return s.SelectCharity(tierID)
}

func (s Selection) SelectUpsell(tierID string) Selection {
	out := s.copy()
	out.UpsellTierIDs[tierID] = struct{}{}
	return out
}

func (s Selection) DeselectUpsell(tierID string) Selection {
	out := s.copy()
	delete(out.UpsellTierIDs, tierID)
	return out
}

func (s Selection) ToggleUpsell(tierID string) Selection {
	if s.UpsellTierIDs.Has(tierID) {
		return s.DeselectUpsell(tierID)
	}
	return s.SelectUpsell(tierID)
}

// AutoSelectCharity selects the cheapest charity tier when a base tier is
// unlocked and no charity tier is selected yet. Otherwise s is returned as is.
func (s Selection) AutoSelectCharity(b *models.Bundle) Selection {
	if len(s.CharityTierIDs) > 0 {
		return s
	}
	charity := CanonicalCharityTiers(b)
	if len(charity) == 0 {
		return s
	}
	if current, _ := currentBaseTier(b, s.BaseAmount); current == nil {
		return s
	}
	return s.SelectCharity(charity[0].ID)
}
