package engine

import (
	"github.com/blagoySimandov/bundlestore/internal/models"
	"github.com/shopspring/decimal"
)

var legacyCharityRate = decimal.NewFromFloat(0.05)

// LegacyCharitySplit reproduces the charity amount shown by the older bundle
// page, for bundles whose receipts were issued under that formula.
//
// The charity share is 5% of the base tier below the one the amount reaches,
// plus the price difference between the two tiers, plus anything paid above
// donationTierPrice. It is not equivalent to ComputeSplit and is never used
// by Derive.
func LegacyCharitySplit(b *models.Bundle, amount, donationTierPrice models.Money) models.Money {
	if b == nil || amount <= 0 {
		return 0
	}
	_, idx := currentBaseTier(b, amount)
	if idx < 0 {
		return 0
	}
	base := CanonicalBaseTiers(b)

	var previous models.Money
	if idx > 0 {
		previous = base[idx-1].Price
	}
	diff := base[idx].Price - previous
	if idx == 0 {
		diff = 0
	}

	charity := decimal.NewFromInt(int64(previous)).Mul(legacyCharityRate).Round(0)
	total := models.Money(charity.IntPart()) + diff
	if donationTierPrice > 0 && amount > donationTierPrice {
		total += amount - donationTierPrice
	}
	return total
}
