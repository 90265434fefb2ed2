package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	assignmentdomain "github.com/smallbiznis/pricebook/internal/assignment/domain"
	"github.com/smallbiznis/pricebook/internal/clock"
	pricelistdomain "github.com/smallbiznis/pricebook/internal/pricelist/domain"
	"github.com/smallbiznis/pricebook/internal/tenantctx"
	"github.com/smallbiznis/pricebook/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Repo          assignmentdomain.Repository
	PriceListRepo pricelistdomain.Repository
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	repo          assignmentdomain.Repository
	priceListRepo pricelistdomain.Repository
}

func New(p Params) assignmentdomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("assignment.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		repo:          p.Repo,
		priceListRepo: p.PriceListRepo,
	}
}

func (s *Service) Assign(ctx context.Context, req assignmentdomain.AssignRequest) (*assignmentdomain.CustomerPriceAssignment, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return nil, assignmentdomain.ErrInvalidTenant
	}

	priceListID, err := snowflake.ParseString(strings.TrimSpace(req.PriceListID))
	if err != nil {
		return nil, assignmentdomain.ErrInvalidPriceList
	}

	assigneeType, err := parseAssigneeType(req.AssigneeType)
	if err != nil {
		return nil, err
	}

	assigneeID := strings.TrimSpace(req.AssigneeID)
	if assigneeID == "" {
		return nil, assignmentdomain.ErrInvalidAssignee
	}

	list, err := s.priceListRepo.FindByID(ctx, s.db, tenantID, priceListID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, assignmentdomain.ErrInvalidPriceList
	}

	now := s.clock.Now()
	effectiveFrom := now
	if req.EffectiveFrom != nil {
		effectiveFrom = req.EffectiveFrom.UTC()
	}
	if req.EffectiveTo != nil && !req.EffectiveTo.After(effectiveFrom) {
		return nil, assignmentdomain.ErrInvalidWindow
	}

	entity := &assignmentdomain.CustomerPriceAssignment{
		ID:            s.genID.Generate(),
		TenantID:      tenantID,
		PriceListID:   priceListID,
		AssigneeType:  assigneeType,
		AssigneeID:    assigneeID,
		Priority:      req.Priority,
		EffectiveFrom: effectiveFrom,
		EffectiveTo:   req.EffectiveTo,
		IsActive:      true,
		ExternalRef:   req.ExternalRef,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// Re-assigning an existing (tenant, list, assignee) pair is rejected, not
	// merged.
	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, assignmentdomain.ErrDuplicateAssignment
		}
		return nil, err
	}

	return entity, nil
}

func (s *Service) Unassign(ctx context.Context, id string) error {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return assignmentdomain.ErrInvalidTenant
	}

	assignmentID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return assignmentdomain.ErrInvalidID
	}

	existing, err := s.repo.FindByID(ctx, s.db, tenantID, assignmentID)
	if err != nil {
		return err
	}
	if existing == nil {
		return assignmentdomain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, tenantID, assignmentID)
}

func (s *Service) List(ctx context.Context, priceListID string) ([]assignmentdomain.CustomerPriceAssignment, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return nil, assignmentdomain.ErrInvalidTenant
	}

	listID, err := snowflake.ParseString(strings.TrimSpace(priceListID))
	if err != nil {
		return nil, assignmentdomain.ErrInvalidPriceList
	}

	return s.repo.ListByPriceList(ctx, s.db, tenantID, listID)
}

func parseAssigneeType(value assignmentdomain.AssigneeType) (assignmentdomain.AssigneeType, error) {
	switch strings.ToUpper(strings.TrimSpace(string(value))) {
	case string(assignmentdomain.AssigneeCustomer):
		return assignmentdomain.AssigneeCustomer, nil
	case string(assignmentdomain.AssigneeOrganization):
		return assignmentdomain.AssigneeOrganization, nil
	default:
		return "", assignmentdomain.ErrInvalidAssigneeType
	}
}
