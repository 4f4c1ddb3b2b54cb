package engine_test

import (
	"time"

	"github.com/blagoySimandov/bundlestore/internal/engine"
	"github.com/blagoySimandov/bundlestore/internal/models"
)

var launch = time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

// ladderBundle has two base tiers ($5 and $15), one $3 charity tier and one
// $8 upsell tier, split 75/20/5.
func ladderBundle() *models.Bundle {
	return &models.Bundle{
		ID:                 "spring-indie",
		Name:               "Spring Indie Bundle",
		StartsAt:           launch,
		EndsAt:             launch.Add(14 * 24 * time.Hour),
		PublisherSplit:     75,
		PlatformSplit:      20,
		CharitySplit:       5,
		ExcessDistribution: models.ExcessCharity,
		MinimumAmount:      100,
		Tiers: []models.Tier{
			{ID: "tier-15", Type: models.TierTypeBase, Price: 1500, Name: "Full bundle"},
			{ID: "tier-5", Type: models.TierTypeBase, Price: 500, Name: "Starter"},
			{ID: "charity-3", Type: models.TierTypeCharity, Price: 300, Name: "Support the cause"},
			{ID: "upsell-8", Type: models.TierTypeUpsell, Price: 800, Name: "Soundtracks"},
		},
		Products: []models.Product{
			{ID: "P1", TierID: "tier-5", Price: 1999},
			{ID: "P2", TierID: "tier-15", Price: 2499},
			{ID: "P3", TierID: "tier-15", Price: 999},
			{ID: "C1", TierID: "charity-3", Price: 499},
			{ID: "X1", TierID: "upsell-8", Price: 1299},
		},
	}
}

func ids(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func base(amount models.Money) engine.Selection {
	return engine.NewSelection().WithBaseAmount(amount, 0)
}
