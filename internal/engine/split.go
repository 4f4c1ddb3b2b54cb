package engine

import (
	"sort"

	"github.com/blagoySimandov/bundlestore/internal/models"
	"github.com/shopspring/decimal"
)

// Split is how a total charge is attributed. Publisher, Platform, Charity and
// Extra always sum to Total exactly.
type Split struct {
	Publisher models.Money `json:"publisher_amount"`
	Platform  models.Money `json:"platform_amount"`
	Charity   models.Money `json:"charity_amount"`
	// Extra is the upsell (developer support) portion, paid in full to
	// publishers but shown apart from the base split.
	Extra models.Money `json:"extra_amount"`
	Total models.Money `json:"total_amount"`
}

// DeveloperTotal is everything that reaches publishers.
func (s Split) DeveloperTotal() models.Money {
	return s.Publisher + s.Extra
}

var hundred = decimal.NewFromInt(100)

// ComputeSplit attributes the selection's total between publishers, the
// platform and charity.
//
// The base amount is divided by the bundle's percentages. Charity tiers go to
// charity in full, upsell tiers to Extra in full, and the tip goes wholly to
// publishers or to charity depending on the bundle's excess distribution.
func ComputeSplit(b *models.Bundle, sel Selection) Split {
	var s Split
	if b == nil {
		return s
	}

	base := sel.BaseAmount
	if base < 0 {
		base = 0
	}
	tip := sel.TipAmount
	if tip < 0 {
		tip = 0
	}

	shares := apportion(base, b.PublisherSplit, b.PlatformSplit, b.CharitySplit)
	s.Publisher, s.Platform, s.Charity = shares[0], shares[1], shares[2]

	for _, t := range CanonicalCharityTiers(b) {
		if sel.CharityTierIDs.Has(t.ID) {
			s.Charity += t.Price
		}
	}
	for _, t := range CanonicalUpsellTiers(b) {
		if sel.UpsellTierIDs.Has(t.ID) {
			s.Extra += t.Price
		}
	}

	if b.ExcessDistribution == models.ExcessPublishers {
		s.Publisher += tip
	} else {
		s.Charity += tip
	}

	s.Total = s.Publisher + s.Platform + s.Charity + s.Extra
	return s
}

// apportion divides amount by pcts using the largest remainder method. Each
// share is its exact percentage floored to the cent, then the leftover cents
// go one at a time to the largest fractional parts, ties to the earlier share.
// Negative percentages count as zero. When pcts sum to 100 the shares sum to
// amount and none is negative.
func apportion(amount models.Money, pcts ...int) []models.Money {
	shares := make([]models.Money, len(pcts))
	fracs := make([]decimal.Decimal, len(pcts))
	total := decimal.NewFromInt(int64(amount))
	left := amount
	for i, pct := range pcts {
		if pct < 0 {
			pct = 0
		}
		exact := total.Mul(decimal.NewFromInt(int64(pct))).Div(hundred)
		floor := exact.Floor()
		shares[i] = models.Money(floor.IntPart())
		fracs[i] = exact.Sub(floor)
		left -= shares[i]
	}

	order := make([]int, len(pcts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return fracs[order[a]].GreaterThan(fracs[order[b]])
	})
	for _, i := range order {
		if left <= 0 {
			break
		}
		if fracs[i].IsZero() {
			break
		}
		shares[i]++
		left--
	}
	return shares
}
