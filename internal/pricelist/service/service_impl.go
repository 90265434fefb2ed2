package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pricebook/internal/clock"
	pricelistdomain "github.com/smallbiznis/pricebook/internal/pricelist/domain"
	"github.com/smallbiznis/pricebook/internal/tenantctx"
	"github.com/smallbiznis/pricebook/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  pricelistdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  pricelistdomain.Repository
}

func New(p Params) pricelistdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("pricelist.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req pricelistdomain.CreateRequest) (*pricelistdomain.PriceList, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return nil, pricelistdomain.ErrInvalidTenant
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, pricelistdomain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pricelistdomain.ErrInvalidName
	}
	listType, err := parseListType(req.Type)
	if err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return nil, pricelistdomain.ErrInvalidCurrency
	}

	status := pricelistdomain.StatusActive
	if req.Status != nil {
		status, err = parseListStatus(*req.Status)
		if err != nil {
			return nil, err
		}
	}

	roundingRule := pricelistdomain.RoundNearest
	if req.RoundingRule != nil {
		roundingRule, err = parseRoundingRule(*req.RoundingRule)
		if err != nil {
			return nil, err
		}
	}
	precision := int32(2)
	if req.RoundingPrecision != nil {
		if *req.RoundingPrecision < 0 || *req.RoundingPrecision > 6 {
			return nil, pricelistdomain.ErrInvalidPrecision
		}
		precision = *req.RoundingPrecision
	}

	now := s.clock.Now()
	effectiveFrom := now
	if req.EffectiveFrom != nil {
		effectiveFrom = req.EffectiveFrom.UTC()
	}
	if req.EffectiveTo != nil && !req.EffectiveTo.After(effectiveFrom) {
		return nil, pricelistdomain.ErrInvalidWindow
	}

	var basePriceListID *snowflake.ID
	if req.BasePriceListID != nil {
		baseID, err := pricelistdomain.ParseID(*req.BasePriceListID)
		if err != nil {
			return nil, pricelistdomain.ErrInvalidID
		}
		base, err := s.repo.FindByID(ctx, s.db, tenantID, baseID)
		if err != nil {
			return nil, err
		}
		if base == nil {
			return nil, pricelistdomain.ErrNotFound
		}
		basePriceListID = &baseID
	}

	isDefault := false
	if req.IsDefault != nil {
		isDefault = *req.IsDefault
	}
	isCustomerSpecific := listType == pricelistdomain.TypeCustomerSpecific
	if req.IsCustomerSpecific != nil {
		isCustomerSpecific = *req.IsCustomerSpecific
	}

	entity := &pricelistdomain.PriceList{
		ID:                 s.genID.Generate(),
		TenantID:           tenantID,
		Code:               code,
		Name:               name,
		Type:               listType,
		Status:             status,
		Currency:           currency,
		Priority:           req.Priority,
		EffectiveFrom:      effectiveFrom,
		EffectiveTo:        req.EffectiveTo,
		BasePriceListID:    basePriceListID,
		PriceModifier:      req.PriceModifier,
		RoundingRule:       roundingRule,
		RoundingPrecision:  precision,
		IsDefault:          isDefault,
		IsCustomerSpecific: isCustomerSpecific,
		ExternalID:         req.ExternalID,
		ExternalSystem:     req.ExternalSystem,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if req.Metadata != nil {
		entity.Metadata = datatypes.JSONMap(req.Metadata)
	}

	// Unset-then-set runs inside one transaction so two defaults are never
	// visible, even under concurrent creates.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if entity.IsDefault {
			if err := s.repo.UnsetDefault(ctx, tx, tenantID); err != nil {
				return err
			}
		}
		return s.repo.Insert(ctx, tx, entity)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, pricelistdomain.ErrDuplicateCode
		}
		return nil, err
	}

	return entity, nil
}

func (s *Service) Update(ctx context.Context, id string, req pricelistdomain.UpdateRequest) (*pricelistdomain.PriceList, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return nil, pricelistdomain.ErrInvalidTenant
	}

	listID, err := pricelistdomain.ParseID(id)
	if err != nil {
		return nil, pricelistdomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, tenantID, listID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, pricelistdomain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, pricelistdomain.ErrInvalidName
		}
		entity.Name = name
	}
	if req.Status != nil {
		status, err := parseListStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		entity.Status = status
	}
	if req.Priority != nil {
		entity.Priority = *req.Priority
	}
	if req.EffectiveFrom != nil {
		entity.EffectiveFrom = req.EffectiveFrom.UTC()
	}
	if req.EffectiveTo != nil {
		if !req.EffectiveTo.After(entity.EffectiveFrom) {
			return nil, pricelistdomain.ErrInvalidWindow
		}
		entity.EffectiveTo = req.EffectiveTo
	}
	if req.PriceModifier != nil {
		entity.PriceModifier = req.PriceModifier
	}
	if req.RoundingRule != nil {
		rule, err := parseRoundingRule(*req.RoundingRule)
		if err != nil {
			return nil, err
		}
		entity.RoundingRule = rule
	}
	if req.RoundingPrecision != nil {
		if *req.RoundingPrecision < 0 || *req.RoundingPrecision > 6 {
			return nil, pricelistdomain.ErrInvalidPrecision
		}
		entity.RoundingPrecision = *req.RoundingPrecision
	}

	makeDefault := req.IsDefault != nil && *req.IsDefault && !entity.IsDefault
	if req.IsDefault != nil {
		entity.IsDefault = *req.IsDefault
	}
	entity.UpdatedAt = s.clock.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if makeDefault {
			if err := s.repo.UnsetDefault(ctx, tx, tenantID); err != nil {
				return err
			}
		}
		return s.repo.Update(ctx, tx, entity)
	})
	if err != nil {
		return nil, err
	}

	return entity, nil
}

// Archive soft-deletes the list: status flip plus deleted-at stamp. Rows are
// never physically removed while usage exists elsewhere.
func (s *Service) Archive(ctx context.Context, id string) error {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return pricelistdomain.ErrInvalidTenant
	}

	listID, err := pricelistdomain.ParseID(id)
	if err != nil {
		return pricelistdomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, tenantID, listID)
	if err != nil {
		return err
	}
	if entity == nil {
		return pricelistdomain.ErrNotFound
	}

	now := s.clock.Now()
	entity.Status = pricelistdomain.StatusArchived
	entity.DeletedAt = &now
	entity.IsDefault = false
	entity.UpdatedAt = now

	return s.repo.Update(ctx, s.db, entity)
}

func (s *Service) Get(ctx context.Context, id string) (*pricelistdomain.PriceList, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return nil, pricelistdomain.ErrInvalidTenant
	}

	listID, err := pricelistdomain.ParseID(id)
	if err != nil {
		return nil, pricelistdomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, tenantID, listID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, pricelistdomain.ErrNotFound
	}
	return entity, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*pricelistdomain.PriceList, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return nil, pricelistdomain.ErrInvalidTenant
	}

	entity, err := s.repo.FindByCode(ctx, s.db, tenantID, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, pricelistdomain.ErrNotFound
	}
	return entity, nil
}

func (s *Service) List(ctx context.Context) ([]pricelistdomain.PriceList, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return nil, pricelistdomain.ErrInvalidTenant
	}
	return s.repo.List(ctx, s.db, tenantID)
}

func parseListType(value pricelistdomain.ListType) (pricelistdomain.ListType, error) {
	switch strings.ToUpper(strings.TrimSpace(string(value))) {
	case string(pricelistdomain.TypeStandard):
		return pricelistdomain.TypeStandard, nil
	case string(pricelistdomain.TypeContract):
		return pricelistdomain.TypeContract, nil
	case string(pricelistdomain.TypePromotional):
		return pricelistdomain.TypePromotional, nil
	case string(pricelistdomain.TypeVolume):
		return pricelistdomain.TypeVolume, nil
	case string(pricelistdomain.TypeCustomerSpecific):
		return pricelistdomain.TypeCustomerSpecific, nil
	case string(pricelistdomain.TypeChannel):
		return pricelistdomain.TypeChannel, nil
	case string(pricelistdomain.TypeRegional):
		return pricelistdomain.TypeRegional, nil
	default:
		return "", pricelistdomain.ErrInvalidType
	}
}

func parseListStatus(value pricelistdomain.ListStatus) (pricelistdomain.ListStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(string(value))) {
	case string(pricelistdomain.StatusActive):
		return pricelistdomain.StatusActive, nil
	case string(pricelistdomain.StatusArchived):
		return pricelistdomain.StatusArchived, nil
	case string(pricelistdomain.StatusDraft):
		return pricelistdomain.StatusDraft, nil
	default:
		return "", pricelistdomain.ErrInvalidStatus
	}
}

func parseRoundingRule(value pricelistdomain.RoundingRule) (pricelistdomain.RoundingRule, error) {
	switch strings.ToUpper(strings.TrimSpace(string(value))) {
	case string(pricelistdomain.RoundUp):
		return pricelistdomain.RoundUp, nil
	case string(pricelistdomain.RoundDown):
		return pricelistdomain.RoundDown, nil
	case string(pricelistdomain.RoundNearest):
		return pricelistdomain.RoundNearest, nil
	case string(pricelistdomain.RoundNearest05):
		return pricelistdomain.RoundNearest05, nil
	case string(pricelistdomain.RoundNearest09):
		return pricelistdomain.RoundNearest09, nil
	case string(pricelistdomain.RoundNearest99):
		return pricelistdomain.RoundNearest99, nil
	case string(pricelistdomain.RoundNone):
		return pricelistdomain.RoundNone, nil
	default:
		return "", pricelistdomain.ErrInvalidRoundingRule
	}
}
