package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Part is a canonical hardware part, keyed by its derived SKU.
type Part struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	SKU          string          `json:"sku" gorm:"type:varchar(120);uniqueIndex;not null"`
	Manufacturer string          `json:"manufacturer" gorm:"type:varchar(120);not null"`
	Model        string          `json:"model" gorm:"type:varchar(200);not null"`
	Category     string          `json:"category" gorm:"type:varchar(50);index;not null"`
	Price        decimal.Decimal `json:"price_usd" gorm:"column:price_usd;type:decimal(10,2);not null"`
	CanonicalURL string          `json:"canonical_url" gorm:"type:varchar(512)"`
	CreatedAt    time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Retailer is a source of offers. One row exists per external source.
type Retailer struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Slug string `json:"slug" gorm:"type:varchar(50);uniqueIndex;not null"`
	Name string `json:"name" gorm:"type:varchar(120);not null"`
}

// Offer is a retailer's listing of a part at a point in time. Offers are
// insert-only: a second sighting of the same (part, retailer, url) is ignored.
type Offer struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	PartID      uint            `json:"part_id" gorm:"not null;uniqueIndex:idx_offer_part_retailer_url,priority:1"`
	RetailerID  uint            `json:"retailer_id" gorm:"not null;uniqueIndex:idx_offer_part_retailer_url,priority:2"`
	RetailerSKU *string         `json:"retailer_sku" gorm:"type:varchar(120)"`
	URL         string          `json:"url" gorm:"type:varchar(512);not null;uniqueIndex:idx_offer_part_retailer_url,priority:3"`
	Price       decimal.Decimal `json:"price_usd" gorm:"column:price_usd;type:decimal(10,2);not null"`
	InStock     bool            `json:"in_stock" gorm:"not null"`
	LastSeenAt  time.Time       `json:"last_seen_at"`
	FetchedAt   time.Time       `json:"fetched_at"`
}

func (Part) TableName() string     { return "parts" }
func (Retailer) TableName() string { return "retailers" }
func (Offer) TableName() string    { return "offers" }

// All returns the models the ingest pipeline writes, in dependency order.
func All() []interface{} {
	return []interface{}{&Retailer{}, &Part{}, &Offer{}}
}
