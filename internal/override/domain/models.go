package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	itemdomain "github.com/smallbiznis/pricebook/internal/pricelistitem/domain"
)

type ScopeType string

var (
	ScopeCustomer     ScopeType = "CUSTOMER"
	ScopeOrganization ScopeType = "ORGANIZATION"
	ScopeContract     ScopeType = "CONTRACT"
)

type OverrideType string

var (
	OverrideFixedPrice         OverrideType = "FIXED_PRICE"
	OverridePercentageDiscount OverrideType = "PERCENTAGE_DISCOUNT"
	OverrideFixedDiscount      OverrideType = "FIXED_DISCOUNT"
	OverrideMarkupPercentage   OverrideType = "MARKUP_PERCENTAGE"
	OverrideMarkupFixed        OverrideType = "MARKUP_FIXED"
)

type OverrideStatus string

var (
	StatusActive    OverrideStatus = "ACTIVE"
	StatusExpired   OverrideStatus = "EXPIRED"
	StatusCancelled OverrideStatus = "CANCELLED"
)

// PriceOverride is a scoped, time- and quantity-bounded exception price that
// outranks list pricing.
type PriceOverride struct {
	ID              snowflake.ID             `json:"id" gorm:"primaryKey"`
	TenantID        snowflake.ID             `json:"tenant_id" gorm:"column:tenant_id;not null;index"`
	ScopeType       ScopeType                `json:"scope_type" gorm:"type:text;not null;index"`
	ScopeID         string                   `json:"scope_id" gorm:"type:text;not null;index"`
	PriceListItemID snowflake.ID             `json:"price_list_item_id" gorm:"column:price_list_item_id;not null;index"`
	OverrideType    OverrideType             `json:"override_type" gorm:"type:text;not null"`
	OverrideValue   decimal.Decimal          `json:"override_value" gorm:"type:numeric(18,4);not null"`
	MinQuantity     *float64                 `json:"min_quantity,omitempty" gorm:"type:numeric"`
	MaxQuantity     *float64                 `json:"max_quantity,omitempty" gorm:"type:numeric"`
	EffectiveFrom   time.Time                `json:"effective_from" gorm:"not null"`
	EffectiveTo     *time.Time               `json:"effective_to,omitempty" gorm:""`
	Status          OverrideStatus           `json:"status" gorm:"type:text;not null;default:'ACTIVE'"`
	Item            *itemdomain.PriceListItem `json:"item,omitempty" gorm:"foreignKey:PriceListItemID"`
	CreatedAt       time.Time                `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time                `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PriceOverride) TableName() string { return "price_overrides" }

// EffectiveAt reports whether the override is active at ts.
func (o *PriceOverride) EffectiveAt(ts time.Time) bool {
	if o.Status != StatusActive {
		return false
	}
	if ts.Before(o.EffectiveFrom) {
		return false
	}
	if o.EffectiveTo != nil && !ts.Before(*o.EffectiveTo) {
		return false
	}
	return true
}

// AdmitsQuantity reports whether the override's quantity bounds admit qty.
func (o *PriceOverride) AdmitsQuantity(qty float64) bool {
	if o.MinQuantity != nil && qty < *o.MinQuantity {
		return false
	}
	if o.MaxQuantity != nil && qty > *o.MaxQuantity {
		return false
	}
	return true
}

// Apply computes the override's price against the item's list price.
func (o *PriceOverride) Apply(listPrice decimal.Decimal) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	switch o.OverrideType {
	case OverrideFixedPrice:
		return o.OverrideValue
	case OverridePercentageDiscount:
		return listPrice.Mul(hundred.Sub(o.OverrideValue)).Div(hundred)
	case OverrideFixedDiscount:
		return listPrice.Sub(o.OverrideValue)
	case OverrideMarkupPercentage:
		return listPrice.Mul(hundred.Add(o.OverrideValue)).Div(hundred)
	case OverrideMarkupFixed:
		return listPrice.Add(o.OverrideValue)
	default:
		return listPrice
	}
}

// Specificity orders scope types for deterministic tie-breaking: a contract
// override beats a customer override beats an organization override.
func (o *PriceOverride) Specificity() int {
	switch o.ScopeType {
	case ScopeContract:
		return 3
	case ScopeCustomer:
		return 2
	case ScopeOrganization:
		return 1
	default:
		return 0
	}
}
