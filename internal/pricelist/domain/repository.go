package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, list *PriceList) error
	Update(ctx context.Context, db *gorm.DB, list *PriceList) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*PriceList, error)
	FindByCode(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, code string) (*PriceList, error)
	FindDefault(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, asOf time.Time) (*PriceList, error)
	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]PriceList, error)
	ListActiveExternallyLinked(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]PriceList, error)
	// UnsetDefault clears the default flag on every list of the tenant.
	// Callers run it with Insert/Update inside one transaction so at most
	// one default is ever visible.
	UnsetDefault(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) error
}
