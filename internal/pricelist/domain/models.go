package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type ListType string

var (
	TypeStandard         ListType = "STANDARD"
	TypeContract         ListType = "CONTRACT"
	TypePromotional      ListType = "PROMOTIONAL"
	TypeVolume           ListType = "VOLUME"
	TypeCustomerSpecific ListType = "CUSTOMER_SPECIFIC"
	TypeChannel          ListType = "CHANNEL"
	TypeRegional         ListType = "REGIONAL"
)

type ListStatus string

var (
	StatusActive   ListStatus = "ACTIVE"
	StatusArchived ListStatus = "ARCHIVED"
	StatusDraft    ListStatus = "DRAFT"
)

type RoundingRule string

var (
	RoundUp        RoundingRule = "UP"
	RoundDown      RoundingRule = "DOWN"
	RoundNearest   RoundingRule = "NEAREST"
	RoundNearest05 RoundingRule = "NEAREST_05"
	RoundNearest09 RoundingRule = "NEAREST_09"
	RoundNearest99 RoundingRule = "NEAREST_99"
	RoundNone      RoundingRule = "NONE"
)

// PriceList is a named, versioned catalog of prices for a tenant.
type PriceList struct {
	ID                 snowflake.ID      `json:"id" gorm:"primaryKey"`
	TenantID           snowflake.ID      `json:"tenant_id" gorm:"column:tenant_id;not null;index:idx_price_lists_tenant_code,unique,priority:1"`
	Code               string            `json:"code" gorm:"type:text;not null;index:idx_price_lists_tenant_code,unique,priority:2"`
	Name               string            `json:"name" gorm:"type:text;not null"`
	Type               ListType          `json:"type" gorm:"type:text;not null"`
	Status             ListStatus        `json:"status" gorm:"type:text;not null"`
	Currency           string            `json:"currency" gorm:"type:text;not null"`
	Priority           int32             `json:"priority" gorm:"not null;default:0"`
	EffectiveFrom      time.Time         `json:"effective_from" gorm:"not null"`
	EffectiveTo        *time.Time        `json:"effective_to,omitempty" gorm:""`
	BasePriceListID    *snowflake.ID     `json:"base_price_list_id,omitempty" gorm:""`
	PriceModifier      *decimal.Decimal  `json:"price_modifier,omitempty" gorm:"type:numeric(12,6)"`
	RoundingRule       RoundingRule      `json:"rounding_rule" gorm:"type:text;not null;default:'NEAREST'"`
	RoundingPrecision  int32             `json:"rounding_precision" gorm:"not null;default:2"`
	IsDefault          bool              `json:"is_default" gorm:"not null;default:false"`
	IsCustomerSpecific bool              `json:"is_customer_specific" gorm:"not null;default:false"`
	ExternalID         *string           `json:"external_id,omitempty" gorm:"type:text;index"`
	ExternalSystem     *string           `json:"external_system,omitempty" gorm:"type:text"`
	LastSyncAt         *time.Time        `json:"last_sync_at,omitempty" gorm:""`
	SyncStatus         *string           `json:"sync_status,omitempty" gorm:"type:text"`
	Metadata           datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	DeletedAt          *time.Time        `json:"deleted_at,omitempty" gorm:""`
	CreatedAt          time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PriceList) TableName() string { return "price_lists" }

// EffectiveAt reports whether the list's validity window contains ts.
// The window is half-open: from inclusive, to exclusive.
func (p *PriceList) EffectiveAt(ts time.Time) bool {
	if ts.Before(p.EffectiveFrom) {
		return false
	}
	if p.EffectiveTo != nil && !ts.Before(*p.EffectiveTo) {
		return false
	}
	return true
}
