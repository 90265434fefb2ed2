package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	pricelistdomain "github.com/smallbiznis/pricebook/internal/pricelist/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() pricelistdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, list *pricelistdomain.PriceList) error {
	return db.WithContext(ctx).Create(list).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, list *pricelistdomain.PriceList) error {
	return db.WithContext(ctx).Save(list).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*pricelistdomain.PriceList, error) {
	var list pricelistdomain.PriceList
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&list).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &list, nil
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, code string) (*pricelistdomain.PriceList, error) {
	var list pricelistdomain.PriceList
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, code).
		First(&list).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &list, nil
}

func (r *repo) FindDefault(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, asOf time.Time) (*pricelistdomain.PriceList, error) {
	var list pricelistdomain.PriceList
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND is_default = ? AND status = ?", tenantID, true, pricelistdomain.StatusActive).
		Where("effective_from <= ?", asOf).
		Where("effective_to IS NULL OR effective_to > ?", asOf).
		First(&list).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &list, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]pricelistdomain.PriceList, error) {
	var lists []pricelistdomain.PriceList
	err := db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("priority DESC, created_at ASC").
		Find(&lists).Error
	if err != nil {
		return nil, err
	}
	return lists, nil
}

func (r *repo) ListActiveExternallyLinked(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]pricelistdomain.PriceList, error) {
	var lists []pricelistdomain.PriceList
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, pricelistdomain.StatusActive).
		Where("external_id IS NOT NULL").
		Order("created_at ASC").
		Find(&lists).Error
	if err != nil {
		return nil, err
	}
	return lists, nil
}

func (r *repo) UnsetDefault(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&pricelistdomain.PriceList{}).
		Where("tenant_id = ? AND is_default = ?", tenantID, true).
		Update("is_default", false).Error
}
