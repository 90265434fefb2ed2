package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pricebook/internal/clock"
	overridedomain "github.com/smallbiznis/pricebook/internal/override/domain"
	itemdomain "github.com/smallbiznis/pricebook/internal/pricelistitem/domain"
	"github.com/smallbiznis/pricebook/internal/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  overridedomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  overridedomain.Repository
}

func New(p Params) overridedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("override.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req overridedomain.CreateRequest) (*overridedomain.PriceOverride, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return nil, overridedomain.ErrInvalidTenant
	}

	scopeType, err := parseScopeType(req.ScopeType)
	if err != nil {
		return nil, err
	}
	scopeID := strings.TrimSpace(req.ScopeID)
	if scopeID == "" {
		return nil, overridedomain.ErrInvalidScope
	}

	itemID, err := snowflake.ParseString(strings.TrimSpace(req.PriceListItemID))
	if err != nil {
		return nil, overridedomain.ErrInvalidItem
	}

	overrideType, err := parseOverrideType(req.OverrideType)
	if err != nil {
		return nil, err
	}
	if req.OverrideValue.IsNegative() {
		return nil, overridedomain.ErrInvalidValue
	}
	if req.MinQuantity != nil && *req.MinQuantity < 0 {
		return nil, overridedomain.ErrInvalidQuantity
	}
	if req.MinQuantity != nil && req.MaxQuantity != nil && *req.MaxQuantity < *req.MinQuantity {
		return nil, overridedomain.ErrInvalidQuantity
	}

	// The item must sit on one of the tenant's own lists; an id belonging
	// to another tenant is indistinguishable from an unknown one.
	var target itemdomain.PriceListItem
	err = s.db.WithContext(ctx).
		Joins("JOIN price_lists ON price_lists.id = price_list_items.price_list_id").
		Where("price_list_items.id = ? AND price_lists.tenant_id = ?", itemID, tenantID).
		First(&target).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, overridedomain.ErrInvalidItem
		}
		return nil, err
	}

	now := s.clock.Now()
	effectiveFrom := now
	if req.EffectiveFrom != nil {
		effectiveFrom = req.EffectiveFrom.UTC()
	}
	if req.EffectiveTo != nil && !req.EffectiveTo.After(effectiveFrom) {
		return nil, overridedomain.ErrInvalidWindow
	}

	entity := &overridedomain.PriceOverride{
		ID:              s.genID.Generate(),
		TenantID:        tenantID,
		ScopeType:       scopeType,
		ScopeID:         scopeID,
		PriceListItemID: itemID,
		OverrideType:    overrideType,
		OverrideValue:   req.OverrideValue,
		MinQuantity:     req.MinQuantity,
		MaxQuantity:     req.MaxQuantity,
		EffectiveFrom:   effectiveFrom,
		EffectiveTo:     req.EffectiveTo,
		Status:          overridedomain.StatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

func (s *Service) Cancel(ctx context.Context, id string) error {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return overridedomain.ErrInvalidTenant
	}

	overrideID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return overridedomain.ErrInvalidID
	}

	existing, err := s.repo.FindByID(ctx, s.db, tenantID, overrideID)
	if err != nil {
		return err
	}
	if existing == nil {
		return overridedomain.ErrNotFound
	}
	if existing.Status != overridedomain.StatusActive {
		return overridedomain.ErrInvalidState
	}

	existing.Status = overridedomain.StatusCancelled
	existing.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, s.db, existing)
}

func (s *Service) List(ctx context.Context, priceListItemID string) ([]overridedomain.PriceOverride, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return nil, overridedomain.ErrInvalidTenant
	}

	itemID, err := snowflake.ParseString(strings.TrimSpace(priceListItemID))
	if err != nil {
		return nil, overridedomain.ErrInvalidItem
	}

	return s.repo.ListByItem(ctx, s.db, tenantID, itemID)
}

func parseScopeType(value overridedomain.ScopeType) (overridedomain.ScopeType, error) {
	switch strings.ToUpper(strings.TrimSpace(string(value))) {
	case string(overridedomain.ScopeCustomer):
		return overridedomain.ScopeCustomer, nil
	case string(overridedomain.ScopeOrganization):
		return overridedomain.ScopeOrganization, nil
	case string(overridedomain.ScopeContract):
		return overridedomain.ScopeContract, nil
	default:
		return "", overridedomain.ErrInvalidScopeType
	}
}

func parseOverrideType(value overridedomain.OverrideType) (overridedomain.OverrideType, error) {
	switch strings.ToUpper(strings.TrimSpace(string(value))) {
	case string(overridedomain.OverrideFixedPrice):
		return overridedomain.OverrideFixedPrice, nil
	case string(overridedomain.OverridePercentageDiscount):
		return overridedomain.OverridePercentageDiscount, nil
	case string(overridedomain.OverrideFixedDiscount):
		return overridedomain.OverrideFixedDiscount, nil
	case string(overridedomain.OverrideMarkupPercentage):
		return overridedomain.OverrideMarkupPercentage, nil
	case string(overridedomain.OverrideMarkupFixed):
		return overridedomain.OverrideMarkupFixed, nil
	default:
		return "", overridedomain.ErrInvalidOverrideType
	}
}
