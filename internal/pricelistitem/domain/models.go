package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// QuantityBreak is a tiered price or discount keyed to an order quantity
// range. Exactly one of Price/DiscountPercent is set; Validate enforces it.
type QuantityBreak struct {
	MinQuantity     float64          `json:"min_quantity"`
	MaxQuantity     *float64         `json:"max_quantity,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
}

func (b QuantityBreak) Validate() error {
	if b.MinQuantity < 0 {
		return ErrInvalidQuantityBreak
	}
	if b.MaxQuantity != nil && *b.MaxQuantity < b.MinQuantity {
		return ErrInvalidQuantityBreak
	}
	if (b.Price == nil) == (b.DiscountPercent == nil) {
		return ErrInvalidQuantityBreak
	}
	if b.Price != nil && b.Price.IsNegative() {
		return ErrInvalidQuantityBreak
	}
	if b.DiscountPercent != nil && (b.DiscountPercent.IsNegative() || b.DiscountPercent.GreaterThan(decimal.NewFromInt(100))) {
		return ErrInvalidQuantityBreak
	}
	return nil
}

// Admits reports whether the break's quantity range contains qty.
func (b QuantityBreak) Admits(qty float64) bool {
	if qty < b.MinQuantity {
		return false
	}
	if b.MaxQuantity != nil && qty > *b.MaxQuantity {
		return false
	}
	return true
}

// PriceListItem is one SKU's pricing within a list.
type PriceListItem struct {
	ID                 snowflake.ID                       `json:"id" gorm:"primaryKey"`
	PriceListID        snowflake.ID                       `json:"price_list_id" gorm:"column:price_list_id;not null;index:idx_items_list_sku,unique,priority:1"`
	SKU                string                             `json:"sku" gorm:"column:sku;type:text;not null;index:idx_items_list_sku,unique,priority:2"`
	MasterProductID    *string                            `json:"master_product_id,omitempty" gorm:"type:text"`
	BasePrice          decimal.Decimal                    `json:"base_price" gorm:"type:numeric(18,4);not null"`
	ListPrice          decimal.Decimal                    `json:"list_price" gorm:"type:numeric(18,4);not null"`
	MinPrice           *decimal.Decimal                   `json:"min_price,omitempty" gorm:"type:numeric(18,4)"`
	MaxPrice           *decimal.Decimal                   `json:"max_price,omitempty" gorm:"type:numeric(18,4)"`
	Cost               *decimal.Decimal                   `json:"cost,omitempty" gorm:"type:numeric(18,4)"`
	Currency           *string                            `json:"currency,omitempty" gorm:"type:text"`
	QuantityBreaks     datatypes.JSONSlice[QuantityBreak] `json:"quantity_breaks,omitempty" gorm:"type:jsonb"`
	MaxDiscountPercent *decimal.Decimal                   `json:"max_discount_percent,omitempty" gorm:"type:numeric(5,2)"`
	IsDiscountable     bool                               `json:"is_discountable" gorm:"not null;default:true"`
	EffectiveFrom      *time.Time                         `json:"effective_from,omitempty" gorm:""`
	EffectiveTo        *time.Time                         `json:"effective_to,omitempty" gorm:""`
	IsActive           bool                               `json:"is_active" gorm:"not null;default:true"`
	UnitOfMeasure      string                             `json:"unit_of_measure" gorm:"type:text;not null;default:'EA'"`
	ExternalID         *string                            `json:"external_id,omitempty" gorm:"type:text"`
	ExternalSystem     *string                            `json:"external_system,omitempty" gorm:"type:text"`
	LastSyncAt         *time.Time                         `json:"last_sync_at,omitempty" gorm:""`
	CreatedAt          time.Time                          `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time                          `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PriceListItem) TableName() string { return "price_list_items" }

// EffectiveAt reports whether the item is active and in its validity window.
func (i *PriceListItem) EffectiveAt(ts time.Time) bool {
	if !i.IsActive {
		return false
	}
	if i.EffectiveFrom != nil && ts.Before(*i.EffectiveFrom) {
		return false
	}
	if i.EffectiveTo != nil && !ts.Before(*i.EffectiveTo) {
		return false
	}
	return true
}
