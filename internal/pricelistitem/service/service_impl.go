package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pricebook/internal/clock"
	pricelistdomain "github.com/smallbiznis/pricebook/internal/pricelist/domain"
	itemdomain "github.com/smallbiznis/pricebook/internal/pricelistitem/domain"
	"github.com/smallbiznis/pricebook/internal/tenantctx"
	"github.com/smallbiznis/pricebook/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Repo          itemdomain.Repository
	PriceListRepo pricelistdomain.Repository
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	repo          itemdomain.Repository
	priceListRepo pricelistdomain.Repository
}

func New(p Params) itemdomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("pricelistitem.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		repo:          p.Repo,
		priceListRepo: p.PriceListRepo,
	}
}

func (s *Service) Add(ctx context.Context, priceListID string, req itemdomain.ItemInput) (*itemdomain.PriceListItem, error) {
	listID, err := s.resolveList(ctx, priceListID)
	if err != nil {
		return nil, err
	}

	if err := validateItemInput(req); err != nil {
		return nil, err
	}

	entity := s.buildItem(listID, req, s.clock.Now())
	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, itemdomain.ErrDuplicateSKU
		}
		return nil, err
	}
	return entity, nil
}

func (s *Service) Update(ctx context.Context, priceListID, sku string, req itemdomain.ItemInput) (*itemdomain.PriceListItem, error) {
	listID, err := s.resolveList(ctx, priceListID)
	if err != nil {
		return nil, err
	}

	sku = strings.TrimSpace(sku)
	existing, err := s.repo.FindBySKU(ctx, s.db, listID, sku)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, itemdomain.ErrNotFound
	}

	req.SKU = sku
	if err := validateItemInput(req); err != nil {
		return nil, err
	}

	applyItemInput(existing, req, s.clock.Now())
	if err := s.repo.Update(ctx, s.db, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *Service) Get(ctx context.Context, priceListID, sku string) (*itemdomain.PriceListItem, error) {
	listID, err := s.resolveList(ctx, priceListID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindBySKU(ctx, s.db, listID, strings.TrimSpace(sku))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, itemdomain.ErrNotFound
	}
	return item, nil
}

func (s *Service) List(ctx context.Context, priceListID string) ([]itemdomain.PriceListItem, error) {
	listID, err := s.resolveList(ctx, priceListID)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, s.db, listID)
}

func (s *Service) resolveList(ctx context.Context, priceListID string) (snowflake.ID, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return 0, itemdomain.ErrInvalidTenant
	}

	listID, err := snowflake.ParseString(strings.TrimSpace(priceListID))
	if err != nil {
		return 0, itemdomain.ErrInvalidID
	}

	list, err := s.priceListRepo.FindByID(ctx, s.db, tenantID, listID)
	if err != nil {
		return 0, err
	}
	if list == nil {
		return 0, itemdomain.ErrPriceListNotFound
	}
	return listID, nil
}

func (s *Service) buildItem(listID snowflake.ID, req itemdomain.ItemInput, now time.Time) *itemdomain.PriceListItem {
	entity := &itemdomain.PriceListItem{
		ID:                 s.genID.Generate(),
		PriceListID:        listID,
		SKU:                strings.TrimSpace(req.SKU),
		MasterProductID:    req.MasterProductID,
		BasePrice:          req.BasePrice,
		ListPrice:          req.ListPrice,
		MinPrice:           req.MinPrice,
		MaxPrice:           req.MaxPrice,
		Cost:               req.Cost,
		Currency:           req.Currency,
		MaxDiscountPercent: req.MaxDiscountPercent,
		IsDiscountable:     true,
		EffectiveFrom:      req.EffectiveFrom,
		EffectiveTo:        req.EffectiveTo,
		IsActive:           true,
		UnitOfMeasure:      "EA",
		ExternalID:         req.ExternalID,
		ExternalSystem:     req.ExternalSystem,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if len(req.QuantityBreaks) > 0 {
		entity.QuantityBreaks = datatypes.NewJSONSlice(req.QuantityBreaks)
	}
	if req.IsDiscountable != nil {
		entity.IsDiscountable = *req.IsDiscountable
	}
	if req.IsActive != nil {
		entity.IsActive = *req.IsActive
	}
	if req.UnitOfMeasure != nil && strings.TrimSpace(*req.UnitOfMeasure) != "" {
		entity.UnitOfMeasure = strings.TrimSpace(*req.UnitOfMeasure)
	}
	return entity
}

func applyItemInput(entity *itemdomain.PriceListItem, req itemdomain.ItemInput, now time.Time) {
	entity.MasterProductID = req.MasterProductID
	entity.BasePrice = req.BasePrice
	entity.ListPrice = req.ListPrice
	entity.MinPrice = req.MinPrice
	entity.MaxPrice = req.MaxPrice
	entity.Cost = req.Cost
	entity.Currency = req.Currency
	entity.MaxDiscountPercent = req.MaxDiscountPercent
	entity.EffectiveFrom = req.EffectiveFrom
	entity.EffectiveTo = req.EffectiveTo
	if len(req.QuantityBreaks) > 0 {
		entity.QuantityBreaks = datatypes.NewJSONSlice(req.QuantityBreaks)
	}
	if req.IsDiscountable != nil {
		entity.IsDiscountable = *req.IsDiscountable
	}
	if req.IsActive != nil {
		entity.IsActive = *req.IsActive
	}
	if req.UnitOfMeasure != nil && strings.TrimSpace(*req.UnitOfMeasure) != "" {
		entity.UnitOfMeasure = strings.TrimSpace(*req.UnitOfMeasure)
	}
	entity.UpdatedAt = now
}

func validateItemInput(req itemdomain.ItemInput) error {
	if strings.TrimSpace(req.SKU) == "" {
		return itemdomain.ErrInvalidSKU
	}
	if req.BasePrice.IsNegative() || req.ListPrice.IsNegative() {
		return itemdomain.ErrInvalidPrice
	}
	if req.MinPrice != nil && req.MinPrice.IsNegative() {
		return itemdomain.ErrInvalidPriceBounds
	}
	if req.MaxPrice != nil && req.MaxPrice.IsNegative() {
		return itemdomain.ErrInvalidPriceBounds
	}
	if req.MinPrice != nil && req.MaxPrice != nil && req.MinPrice.GreaterThan(*req.MaxPrice) {
		return itemdomain.ErrInvalidPriceBounds
	}
	if req.EffectiveFrom != nil && req.EffectiveTo != nil && !req.EffectiveTo.After(*req.EffectiveFrom) {
		return itemdomain.ErrInvalidWindow
	}
	for _, qb := range req.QuantityBreaks {
		if err := qb.Validate(); err != nil {
			return err
		}
	}
	return nil
}
