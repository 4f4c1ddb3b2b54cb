package engine

import (
	"fmt"

	"github.com/blagoySimandov/bundlestore/internal/models"
)

// Cart is the request payload handed to checkout.
type Cart struct {
	BundleID       string       `json:"bundle_id"`
	TotalAmount    models.Money `json:"total_amount"`
	BaseAmount     models.Money `json:"base_amount"`
	TipAmount      models.Money `json:"tip_amount"`
	BaseTierID     string       `json:"base_tier_id,omitempty"`
	CharityTierIDs []string     `json:"charity_tier_ids"`
	UpsellTierIDs  []string     `json:"upsell_tier_ids"`
	Split          Split        `json:"split"`
}

// BuildCart turns a validated selection and its derived view into a checkout
// payload. It refuses when the view's purchase gate is closed.
func BuildCart(b *models.Bundle, sel Selection, view DerivedView) (Cart, error) {
	if b == nil {
		return Cart{}, ErrNothingToPurchase
	}
	if err := ValidateSelection(b, sel); err != nil {
		return Cart{}, err
	}
	if sel.BelowMinimum(b) {
		return Cart{}, fmt.Errorf("%w: %d < %d", ErrBelowMinimum, sel.BaseAmount, b.MinimumAmount)
	}
	if !view.SaleActive {
		return Cart{}, ErrSaleInactive
	}
	if !view.Availability.HasAvailableBaseTiers {
		return Cart{}, fmt.Errorf("%w: %s", ErrUnavailable, view.Availability.Reason)
	}
	if view.Split.Total <= 0 {
		return Cart{}, ErrNothingToPurchase
	}

	c := Cart{
		BundleID:       b.ID,
		TotalAmount:    view.Split.Total,
		BaseAmount:     sel.BaseAmount,
		TipAmount:      sel.TipAmount,
		CharityTierIDs: sel.CharityTierIDs.IDs(),
		UpsellTierIDs:  sel.UpsellTierIDs.IDs(),
		Split:          view.Split,
	}
	if view.CurrentBaseTier != nil {
		c.BaseTierID = view.CurrentBaseTier.ID
	}
	return c, nil
}
