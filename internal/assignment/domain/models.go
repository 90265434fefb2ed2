package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type AssigneeType string

var (
	AssigneeCustomer     AssigneeType = "CUSTOMER"
	AssigneeOrganization AssigneeType = "ORGANIZATION"
)

// CustomerPriceAssignment binds a price list to a customer or organization
// with a priority and validity window.
type CustomerPriceAssignment struct {
	ID            snowflake.ID `json:"id" gorm:"primaryKey"`
	TenantID      snowflake.ID `json:"tenant_id" gorm:"column:tenant_id;not null;index:idx_assignments_unique,unique,priority:1"`
	PriceListID   snowflake.ID `json:"price_list_id" gorm:"column:price_list_id;not null;index:idx_assignments_unique,unique,priority:2"`
	AssigneeType  AssigneeType `json:"assignee_type" gorm:"type:text;not null;index:idx_assignments_unique,unique,priority:3"`
	AssigneeID    string       `json:"assignee_id" gorm:"type:text;not null;index:idx_assignments_unique,unique,priority:4"`
	Priority      int32        `json:"priority" gorm:"not null;default:0"`
	EffectiveFrom time.Time    `json:"effective_from" gorm:"not null"`
	EffectiveTo   *time.Time   `json:"effective_to,omitempty" gorm:""`
	IsActive      bool         `json:"is_active" gorm:"not null;default:true"`
	ExternalRef   *string      `json:"external_ref,omitempty" gorm:"type:text"`
	CreatedAt     time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CustomerPriceAssignment) TableName() string { return "customer_price_assignments" }

// EffectiveAt reports whether the assignment is active and valid at ts.
func (a *CustomerPriceAssignment) EffectiveAt(ts time.Time) bool {
	if !a.IsActive {
		return false
	}
	if ts.Before(a.EffectiveFrom) {
		return false
	}
	if a.EffectiveTo != nil && !ts.Before(*a.EffectiveTo) {
		return false
	}
	return true
}
