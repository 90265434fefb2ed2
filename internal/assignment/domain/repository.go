package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, assignment *CustomerPriceAssignment) error
	Delete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*CustomerPriceAssignment, error)
	ListByPriceList(ctx context.Context, db *gorm.DB, tenantID, priceListID snowflake.ID) ([]CustomerPriceAssignment, error)
	// ListForAssignees returns active assignments for any of the given
	// (type, id) pairs, ordered by priority descending.
	ListForAssignees(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, assignees []Assignee) ([]CustomerPriceAssignment, error)
}

type Assignee struct {
	Type AssigneeType
	ID   string
}
