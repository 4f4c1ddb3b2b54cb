package models

import (
	"fmt"
	"slices"
	"time"
)

// Money is an amount in minor units (cents).
type Money int64

// Dollars renders m as a decimal string without a currency sign, e.g. "11.25".
func (m Money) Dollars() string {
	v := int64(m)
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

type TierType string

const (
	TierTypeBase    TierType = "base"
	TierTypeCharity TierType = "charity"
	TierTypeUpsell  TierType = "upsell"
)

type ExcessDistribution string

const (
	ExcessCharity    ExcessDistribution = "charity"
	ExcessPublishers ExcessDistribution = "publishers"
)

type Tier struct {
	ID    string   `json:"id" yaml:"id"`
	Type  TierType `json:"type" yaml:"type"`
	Price Money    `json:"price" yaml:"price"`
	Name  string   `json:"name,omitempty" yaml:"name,omitempty"`
}

// Product belongs to at most one tier. An empty TierID means the product is
// always unlocked.
type Product struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Price  Money  `json:"price" yaml:"price"`
	TierID string `json:"tier_id,omitempty" yaml:"tier_id,omitempty"`
}

type Bundle struct {
	ID       string     `json:"id" yaml:"id"`
	Name     string     `json:"name" yaml:"name"`
	StartsAt time.Time  `json:"starts_at" yaml:"starts_at"`
	EndsAt   time.Time  `json:"ends_at" yaml:"ends_at"`
	SellFrom *time.Time `json:"sell_from,omitempty" yaml:"sell_from,omitempty"`
	SellTo   *time.Time `json:"sell_to,omitempty" yaml:"sell_to,omitempty"`

	PublisherSplit     int                `json:"publisher_split" yaml:"publisher_split"`
	PlatformSplit      int                `json:"platform_split" yaml:"platform_split"`
	CharitySplit       int                `json:"charity_split" yaml:"charity_split"`
	ExcessDistribution ExcessDistribution `json:"excess_distribution" yaml:"excess_distribution"`

	// MinimumAmount is the smallest non-zero base contribution accepted.
	MinimumAmount Money `json:"minimum_amount" yaml:"minimum_amount"`
	// UpgradeWindow bounds upgrades relative to the purchase time. Zero means
	// upgrades stay open until the bundle ends.
	UpgradeWindow time.Duration `json:"upgrade_window,omitempty" yaml:"upgrade_window,omitempty"`

	Tiers    []Tier    `json:"tiers" yaml:"tiers"`
	Products []Product `json:"products" yaml:"products"`
}

// SaleStart returns SellFrom, defaulting to StartsAt.
func (b *Bundle) SaleStart() time.Time {
	if b.SellFrom != nil {
		return *b.SellFrom
	}
	return b.StartsAt
}

// SaleEnd returns SellTo, defaulting to EndsAt.
func (b *Bundle) SaleEnd() time.Time {
	if b.SellTo != nil {
		return *b.SellTo
	}
	return b.EndsAt
}

// HasPreSale reports whether the sale window differs from the public window.
func (b *Bundle) HasPreSale() bool {
	return !b.SaleStart().Equal(b.StartsAt) || !b.SaleEnd().Equal(b.EndsAt)
}

func (b *Bundle) Tier(id string) (Tier, bool) {
	for _, t := range b.Tiers {
		if t.ID == id {
			return t, true
		}
	}
	return Tier{}, false
}

// ProductsOfTier returns the products belonging to tierID in declaration order.
func (b *Bundle) ProductsOfTier(tierID string) []Product {
	var out []Product
	for _, p := range b.Products {
		if p.TierID == tierID {
			out = append(out, p)
		}
	}
	return out
}

type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "PENDING"
	PurchaseStatusCompleted PurchaseStatus = "COMPLETED"
	PurchaseStatusRefunded  PurchaseStatus = "REFUNDED"
)

// PriorPurchase is a read-only snapshot of a customer's earlier purchase of a bundle.
type PriorPurchase struct {
	ID                string         `json:"id" yaml:"id,omitempty"`
	CustomerID        string         `json:"customer_id" yaml:"customer_id"`
	BundleID          string         `json:"bundle_id" yaml:"bundle_id"`
	Status            PurchaseStatus `json:"status" yaml:"status"`
	IsGift            bool           `json:"is_gift" yaml:"is_gift"`
	SnapshotTierPrice Money          `json:"snapshot_tier_price" yaml:"snapshot_tier_price"`
	CharityAmount     Money          `json:"charity_amount" yaml:"charity_amount"`
	SnapshotProducts  []string       `json:"snapshot_products" yaml:"snapshot_products"`
	CharityTierIDs    []string       `json:"charity_tier_ids,omitempty" yaml:"charity_tier_ids,omitempty"`
	PurchasedAt       time.Time      `json:"purchased_at" yaml:"purchased_at"`
}

// OwnsProduct reports whether productID is part of the purchase snapshot.
func (p *PriorPurchase) OwnsProduct(productID string) bool {
	return slices.Contains(p.SnapshotProducts, productID)
}
