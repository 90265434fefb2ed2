package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	itemdomain "github.com/smallbiznis/pricebook/internal/pricelistitem/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() itemdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, item *itemdomain.PriceListItem) error {
	return db.WithContext(ctx).Create(item).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, item *itemdomain.PriceListItem) error {
	return db.WithContext(ctx).Save(item).Error
}

func (r *repo) FindBySKU(ctx context.Context, db *gorm.DB, priceListID snowflake.ID, sku string) (*itemdomain.PriceListItem, error) {
	var item itemdomain.PriceListItem
	err := db.WithContext(ctx).
		Where("price_list_id = ? AND sku = ?", priceListID, sku).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, priceListID snowflake.ID) ([]itemdomain.PriceListItem, error) {
	var items []itemdomain.PriceListItem
	err := db.WithContext(ctx).
		Where("price_list_id = ?", priceListID).
		Order("sku ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB, priceListID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&itemdomain.PriceListItem{}).
		Where("price_list_id = ?", priceListID).
		Count(&count).Error
	return count, err
}

func (r *repo) SnapshotPrices(ctx context.Context, db *gorm.DB, priceListID snowflake.ID) (map[string]decimal.Decimal, error) {
	var rows []struct {
		SKU       string
		ListPrice decimal.Decimal
	}
	err := db.WithContext(ctx).
		Model(&itemdomain.PriceListItem{}).
		Select("sku", "list_price").
		Where("price_list_id = ?", priceListID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	snapshot := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		snapshot[row.SKU] = row.ListPrice
	}
	return snapshot, nil
}
