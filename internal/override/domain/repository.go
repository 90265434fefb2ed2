package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, override *PriceOverride) error
	Update(ctx context.Context, db *gorm.DB, override *PriceOverride) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*PriceOverride, error)
	ListByItem(ctx context.Context, db *gorm.DB, tenantID, itemID snowflake.ID) ([]PriceOverride, error)
	// ListActiveForScopes returns ACTIVE overrides matching any of the given
	// (scope type, scope id) pairs, with the target item preloaded.
	ListActiveForScopes(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, scopes []Scope) ([]PriceOverride, error)
}

type Scope struct {
	Type ScopeType
	ID   string
}
