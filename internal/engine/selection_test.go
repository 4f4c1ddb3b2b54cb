package engine_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/blagoySimandov/bundlestore/internal/engine"
	"github.com/blagoySimandov/bundlestore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelection_TransitionsDoNotMutateReceiver(t *testing.T) {
	start := engine.NewSelection()

	next := start.SelectCharity("charity-3").SelectUpsell("upsell-8").WithTip(200).WithBaseAmount(1500, 100)

	assert.Empty(t, start.CharityTierIDs)
	assert.Empty(t, start.UpsellTierIDs)
	assert.Zero(t, start.BaseAmount)
	assert.Zero(t, start.TipAmount)
	assert.True(t, next.CharityTierIDs.Has("charity-3"))
	assert.True(t, next.UpsellTierIDs.Has("upsell-8"))
}

func TestSelection_WithBaseAmountClamps(t *testing.T) {
	s := engine.NewSelection().WithBaseAmount(1200, 100)

	assert.Equal(t, models.Money(1200), s.WithBaseAmount(50, 100).BaseAmount, "sub-minimum amount is not applied")
	assert.Equal(t, models.Money(0), s.WithBaseAmount(-10, 100).BaseAmount)
	assert.Equal(t, models.Money(0), s.WithBaseAmount(0, 100).BaseAmount)
	assert.Equal(t, models.Money(100), s.WithBaseAmount(100, 100).BaseAmount)
}

func TestSelection_WithTipClampsNegative(t *testing.T) {
	assert.Equal(t, models.Money(0), engine.NewSelection().WithTip(-500).TipAmount)
}

func TestSelection_WithBaseTier(t *testing.T) {
	b := ladderBundle()
	top := engine.CanonicalBaseTiers(b)[1]

	s := engine.NewSelection().WithBaseTier(top)
	assert.Equal(t, models.Money(1500), s.BaseAmount)
}

func TestSelection_Toggle(t *testing.T) {
	s := engine.NewSelection().ToggleCharity("charity-3")
	assert.True(t, s.CharityTierIDs.Has("charity-3"))
	assert.False(t, s.ToggleCharity("charity-3").CharityTierIDs.Has("charity-3"))

	u := engine.NewSelection().ToggleUpsell("upsell-8")
	assert.True(t, u.UpsellTierIDs.Has("upsell-8"))
	assert.False(t, u.ToggleUpsell("upsell-8").UpsellTierIDs.Has("upsell-8"))
}

func TestSelection_SelectingTwiceIsIdempotent(t *testing.T) {
	b := ladderBundle()
	now := launch.Add(time.Hour)

	once := base(1500).SelectCharity("charity-3")
	twice := once.SelectCharity("charity-3")

	assert.Equal(t, engine.Derive(b, once, now, nil), engine.Derive(b, twice, now, nil))
}

func TestSelection_ApplyMinimum(t *testing.T) {
	b := ladderBundle()

	below := base(40).SelectUpsell("upsell-8")
	applied := below.ApplyMinimum(b)
	assert.True(t, below.BelowMinimum(b))
	assert.Equal(t, models.Money(0), applied.BaseAmount)
	assert.True(t, applied.UpsellTierIDs.Has("upsell-8"))
	assert.Equal(t, models.Money(40), below.BaseAmount)

	assert.False(t, base(0).BelowMinimum(b))
	assert.False(t, base(100).BelowMinimum(b))
	assert.Equal(t, models.Money(100), base(100).ApplyMinimum(b).BaseAmount)
}

func TestSelection_AutoSelectCharity(t *testing.T) {
	b := ladderBundle()

	assert.Empty(t, base(0).AutoSelectCharity(b).CharityTierIDs, "no base tier unlocked")
	assert.Equal(t, []string{"charity-3"}, base(500).AutoSelectCharity(b).CharityTierIDs.IDs())

	b.Tiers = append(b.Tiers, models.Tier{ID: "charity-10", Type: models.TierTypeCharity, Price: 1000})
	chosen := base(500).SelectCharity("charity-10").AutoSelectCharity(b)
	assert.Equal(t, []string{"charity-10"}, chosen.CharityTierIDs.IDs(), "existing choice is kept")
}

func TestTierSet_JSON(t *testing.T) {
	var sel engine.Selection
	require.NoError(t, json.Unmarshal([]byte(`{
		"base_amount": 1500,
		"charity_tier_ids": ["charity-3", "charity-3"],
		"upsell_tier_ids": ["b", "a"],
		"tip_amount": 0
	}`), &sel))

	assert.Len(t, sel.CharityTierIDs, 1)

	out, err := json.Marshal(sel)
	require.NoError(t, err)
	assert.JSONEq(t, `{"base_amount":1500,"charity_tier_ids":["charity-3"],"upsell_tier_ids":["a","b"],"tip_amount":0}`, string(out))
}
