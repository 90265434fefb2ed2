package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, item *PriceListItem) error
	Update(ctx context.Context, db *gorm.DB, item *PriceListItem) error
	FindBySKU(ctx context.Context, db *gorm.DB, priceListID snowflake.ID, sku string) (*PriceListItem, error)
	List(ctx context.Context, db *gorm.DB, priceListID snowflake.ID) ([]PriceListItem, error)
	Count(ctx context.Context, db *gorm.DB, priceListID snowflake.ID) (int64, error)
	// SnapshotPrices returns SKU -> current list price for delta statistics.
	SnapshotPrices(ctx context.Context, db *gorm.DB, priceListID snowflake.ID) (map[string]decimal.Decimal, error)
}
