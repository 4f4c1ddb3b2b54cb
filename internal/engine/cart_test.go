package engine_test

import (
	"testing"
	"time"

	"github.com/blagoySimandov/bundlestore/internal/engine"
	"github.com/blagoySimandov/bundlestore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCart(t *testing.T) {
	b := ladderBundle()
	sel := base(1500).SelectUpsell("upsell-8").SelectCharity("charity-3").WithTip(200)
	view := engine.Derive(b, sel, launch.Add(time.Hour), nil)

	cart, err := engine.BuildCart(b, sel, view)
	require.NoError(t, err)

	assert.Equal(t, "spring-indie", cart.BundleID)
	assert.Equal(t, "tier-15", cart.BaseTierID)
	assert.Equal(t, models.Money(1500+300+800+200), cart.TotalAmount)
	assert.Equal(t, []string{"charity-3"}, cart.CharityTierIDs)
	assert.Equal(t, []string{"upsell-8"}, cart.UpsellTierIDs)
}

func TestBuildCart_Refusals(t *testing.T) {
	b := ladderBundle()
	open := launch.Add(time.Hour)

	_, err := engine.BuildCart(b, base(1500), engine.Derive(b, base(1500), b.EndsAt.Add(day), nil))
	assert.ErrorIs(t, err, engine.ErrSaleInactive)

	_, err = engine.BuildCart(b, base(1500), engine.Derive(b, base(1500), open, engine.Stock{}))
	assert.ErrorIs(t, err, engine.ErrUnavailable)

	_, err = engine.BuildCart(b, base(0), engine.Derive(b, base(0), open, nil))
	assert.ErrorIs(t, err, engine.ErrNothingToPurchase)

	stale := base(1500).SelectCharity("charity-retired")
	_, err = engine.BuildCart(b, stale, engine.Derive(b, stale, open, nil))
	assert.ErrorIs(t, err, engine.ErrUnknownTier)
}

func TestBuildCart_BelowMinimum(t *testing.T) {
	b := ladderBundle()
	open := launch.Add(time.Hour)

	for _, sel := range []engine.Selection{
		base(1),
		base(99),
		base(50).SelectCharity("charity-3"),
	} {
		_, err := engine.BuildCart(b, sel, engine.Derive(b, sel, open, nil))
		assert.ErrorIs(t, err, engine.ErrBelowMinimum, "base=%d", sel.BaseAmount)
	}

	cart, err := engine.BuildCart(b, base(100), engine.Derive(b, base(100), open, nil))
	require.NoError(t, err)
	assert.Equal(t, models.Money(100), cart.TotalAmount)
}
