package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type BundleDB struct {
	bun.BaseModel `bun:"table:bundles,alias:b"`

	BundleID           string             `bun:"bundle_id,pk" json:"bundle_id"`
	Name               string             `bun:"name,notnull" json:"name"`
	StartsAt           time.Time          `bun:"starts_at,notnull" json:"starts_at"`
	EndsAt             time.Time          `bun:"ends_at,notnull" json:"ends_at"`
	SellFrom           *time.Time         `bun:"sell_from" json:"sell_from,omitempty"`
	SellTo             *time.Time         `bun:"sell_to" json:"sell_to,omitempty"`
	PublisherSplit     int                `bun:"publisher_split,notnull" json:"publisher_split"`
	PlatformSplit      int                `bun:"platform_split,notnull" json:"platform_split"`
	CharitySplit       int                `bun:"charity_split,notnull" json:"charity_split"`
	ExcessDistribution ExcessDistribution `bun:"excess_distribution,notnull,default:'charity'" json:"excess_distribution"`
	MinimumAmountCents int64              `bun:"minimum_amount_cents,notnull,default:0" json:"minimum_amount_cents"`
	UpgradeWindowSecs  int64              `bun:"upgrade_window_secs,notnull,default:0" json:"upgrade_window_secs"`
	Tiers              []*TierDB          `bun:"rel:has-many,join:bundle_id=bundle_id"`
	Products           []*ProductDB       `bun:"rel:has-many,join:bundle_id=bundle_id"`
	CreatedAt          time.Time          `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt          time.Time          `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

type TierDB struct {
	bun.BaseModel `bun:"table:tiers,alias:t"`

	TierID     string   `bun:"tier_id,pk" json:"tier_id"`
	BundleID   string   `bun:"bundle_id,pk" json:"bundle_id"`
	Type       TierType `bun:"type,notnull" json:"type"`
	PriceCents int64    `bun:"price_cents,notnull" json:"price_cents"`
	Name       string   `bun:"name" json:"name"`
}

type ProductDB struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ProductID  string `bun:"product_id,pk" json:"product_id"`
	BundleID   string `bun:"bundle_id,pk" json:"bundle_id"`
	TierID     string `bun:"tier_id" json:"tier_id"`
	Name       string `bun:"name" json:"name"`
	PriceCents int64  `bun:"price_cents,notnull" json:"price_cents"`
	Position   int    `bun:"position,notnull,default:0" json:"position"`
}

// StockDB is the remaining key count of one tier in one territory.
type StockDB struct {
	bun.BaseModel `bun:"table:tier_stock,alias:s"`

	BundleID  string    `bun:"bundle_id,pk" json:"bundle_id"`
	TierID    string    `bun:"tier_id,pk" json:"tier_id"`
	Country   string    `bun:"country,pk" json:"country"`
	Remaining int       `bun:"remaining,notnull" json:"remaining"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

type PurchaseDB struct {
	bun.BaseModel `bun:"table:purchases,alias:pu"`

	ID                uuid.UUID      `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	CustomerID        string         `bun:"customer_id,notnull" json:"customer_id"`
	BundleID          string         `bun:"bundle_id,notnull" json:"bundle_id"`
	Status            PurchaseStatus `bun:"status,notnull,default:'PENDING'" json:"status"`
	IsGift            bool           `bun:"is_gift,notnull,default:false" json:"is_gift"`
	SnapshotTierCents int64          `bun:"snapshot_tier_cents,notnull" json:"snapshot_tier_cents"`
	CharityCents      int64          `bun:"charity_cents,notnull" json:"charity_cents"`
	SnapshotProducts  []string       `bun:"snapshot_products,type:jsonb" json:"snapshot_products"`
	CharityTierIDs    []string       `bun:"charity_tier_ids,type:jsonb" json:"charity_tier_ids"`
	PurchasedAt       time.Time      `bun:"purchased_at,notnull,default:current_timestamp" json:"purchased_at"`
	CreatedAt         time.Time      `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

func (b *BundleDB) ToBundle() *Bundle {
	out := &Bundle{
		ID:                 b.BundleID,
		Name:               b.Name,
		StartsAt:           b.StartsAt,
		EndsAt:             b.EndsAt,
		SellFrom:           b.SellFrom,
		SellTo:             b.SellTo,
		PublisherSplit:     b.PublisherSplit,
		PlatformSplit:      b.PlatformSplit,
		CharitySplit:       b.CharitySplit,
		ExcessDistribution: b.ExcessDistribution,
		MinimumAmount:      Money(b.MinimumAmountCents),
		UpgradeWindow:      time.Duration(b.UpgradeWindowSecs) * time.Second,
		Tiers:              make([]Tier, 0, len(b.Tiers)),
		Products:           make([]Product, 0, len(b.Products)),
	}
	for _, t := range b.Tiers {
		out.Tiers = append(out.Tiers, Tier{
			ID:    t.TierID,
			Type:  t.Type,
			Price: Money(t.PriceCents),
			Name:  t.Name,
		})
	}
	for _, p := range b.Products {
		out.Products = append(out.Products, Product{
			ID:     p.ProductID,
			Name:   p.Name,
			Price:  Money(p.PriceCents),
			TierID: p.TierID,
		})
	}
	return out
}

func BundleFromDomain(b *Bundle) *BundleDB {
	out := &BundleDB{
		BundleID:           b.ID,
		Name:               b.Name,
		StartsAt:           b.StartsAt,
		EndsAt:             b.EndsAt,
		SellFrom:           b.SellFrom,
		SellTo:             b.SellTo,
		PublisherSplit:     b.PublisherSplit,
		PlatformSplit:      b.PlatformSplit,
		CharitySplit:       b.CharitySplit,
		ExcessDistribution: b.ExcessDistribution,
		MinimumAmountCents: int64(b.MinimumAmount),
		UpgradeWindowSecs:  int64(b.UpgradeWindow / time.Second),
	}
	for _, t := range b.Tiers {
		out.Tiers = append(out.Tiers, &TierDB{
			TierID:     t.ID,
			BundleID:   b.ID,
			Type:       t.Type,
			PriceCents: int64(t.Price),
			Name:       t.Name,
		})
	}
	for i, p := range b.Products {
		out.Products = append(out.Products, &ProductDB{
			ProductID:  p.ID,
			BundleID:   b.ID,
			TierID:     p.TierID,
			Name:       p.Name,
			PriceCents: int64(p.Price),
			Position:   i,
		})
	}
	return out
}

func (p *PurchaseDB) ToPriorPurchase() *PriorPurchase {
	return &PriorPurchase{
		ID:                p.ID.String(),
		CustomerID:        p.CustomerID,
		BundleID:          p.BundleID,
		Status:            p.Status,
		IsGift:            p.IsGift,
		SnapshotTierPrice: Money(p.SnapshotTierCents),
		CharityAmount:     Money(p.CharityCents),
		SnapshotProducts:  p.SnapshotProducts,
		CharityTierIDs:    p.CharityTierIDs,
		PurchasedAt:       p.PurchasedAt,
	}
}

func PurchaseFromDomain(p *PriorPurchase) *PurchaseDB {
	out := &PurchaseDB{
		CustomerID:        p.CustomerID,
		BundleID:          p.BundleID,
		Status:            p.Status,
		IsGift:            p.IsGift,
		SnapshotTierCents: int64(p.SnapshotTierPrice),
		CharityCents:      int64(p.CharityAmount),
		SnapshotProducts:  p.SnapshotProducts,
		CharityTierIDs:    p.CharityTierIDs,
		PurchasedAt:       p.PurchasedAt,
	}
	if id, err := uuid.Parse(p.ID); err == nil {
		out.ID = id
	}
	return out
}
