package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	overridedomain "github.com/smallbiznis/pricebook/internal/override/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() overridedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, override *overridedomain.PriceOverride) error {
	return db.WithContext(ctx).Create(override).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, override *overridedomain.PriceOverride) error {
	return db.WithContext(ctx).Save(override).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*overridedomain.PriceOverride, error) {
	var override overridedomain.PriceOverride
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&override).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &override, nil
}

func (r *repo) ListByItem(ctx context.Context, db *gorm.DB, tenantID, itemID snowflake.ID) ([]overridedomain.PriceOverride, error) {
	var overrides []overridedomain.PriceOverride
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND price_list_item_id = ?", tenantID, itemID).
		Order("created_at ASC").
		Find(&overrides).Error
	if err != nil {
		return nil, err
	}
	return overrides, nil
}

func (r *repo) ListActiveForScopes(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, scopes []overridedomain.Scope) ([]overridedomain.PriceOverride, error) {
	if len(scopes) == 0 {
		return nil, nil
	}

	conds := make([]string, 0, len(scopes))
	args := make([]any, 0, len(scopes)*2)
	for _, scope := range scopes {
		conds = append(conds, "(scope_type = ? AND scope_id = ?)")
		args = append(args, scope.Type, scope.ID)
	}

	var overrides []overridedomain.PriceOverride
	err := db.WithContext(ctx).
		Preload("Item").
		Where("tenant_id = ? AND status = ?", tenantID, overridedomain.StatusActive).
		Where(strings.Join(conds, " OR "), args...).
		Find(&overrides).Error
	if err != nil {
		return nil, err
	}
	return overrides, nil
}
