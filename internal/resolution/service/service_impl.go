package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	assignmentdomain "github.com/smallbiznis/pricebook/internal/assignment/domain"
	"github.com/smallbiznis/pricebook/internal/clock"
	"github.com/smallbiznis/pricebook/internal/config"
	obsmetrics "github.com/smallbiznis/pricebook/internal/observability/metrics"
	overridedomain "github.com/smallbiznis/pricebook/internal/override/domain"
	pricelistdomain "github.com/smallbiznis/pricebook/internal/pricelist/domain"
	itemdomain "github.com/smallbiznis/pricebook/internal/pricelistitem/domain"
	resolutiondomain "github.com/smallbiznis/pricebook/internal/resolution/domain"
	"github.com/smallbiznis/pricebook/internal/tenantctx"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultResolveConcurrency = 10

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	Clock          clock.Clock
	Config         config.Config
	Metrics        *obsmetrics.Metrics `optional:"true"`
	OverrideRepo   overridedomain.Repository
	AssignmentRepo assignmentdomain.Repository
	PriceListRepo  pricelistdomain.Repository
	ItemRepo       itemdomain.Repository
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	clock          clock.Clock
	metrics        *obsmetrics.Metrics
	concurrency    int
	overrideRepo   overridedomain.Repository
	assignmentRepo assignmentdomain.Repository
	priceListRepo  pricelistdomain.Repository
	itemRepo       itemdomain.Repository
}

func New(p Params) resolutiondomain.Service {
	concurrency := p.Config.ResolveConcurrency
	if concurrency <= 0 {
		concurrency = defaultResolveConcurrency
	}
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("resolution.service"),
		clock:          p.Clock,
		metrics:        p.Metrics,
		concurrency:    concurrency,
		overrideRepo:   p.OverrideRepo,
		assignmentRepo: p.AssignmentRepo,
		priceListRepo:  p.PriceListRepo,
		itemRepo:       p.ItemRepo,
	}
}

// Resolve walks the precedence chain: override, then customer-specific
// lists, then the tenant's default list. First match wins.
func (s *Service) Resolve(ctx context.Context, req resolutiondomain.ResolveRequest) (*resolutiondomain.PriceResult, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return nil, resolutiondomain.ErrInvalidTenant
	}

	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		return nil, resolutiondomain.ErrInvalidSKU
	}
	if req.Quantity <= 0 {
		return nil, resolutiondomain.ErrInvalidQuantity
	}

	asOf := s.clock.Now()
	if req.AsOf != nil {
		asOf = req.AsOf.UTC()
	}

	started := s.clock.Now()
	trace := make([]resolutiondomain.ResolutionStep, 0, 4)

	result, err := s.resolveOverride(ctx, tenantID, sku, req, asOf, &trace)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result, err = s.resolveCustomerLists(ctx, tenantID, sku, req, asOf, &trace)
		if err != nil {
			return nil, err
		}
	}
	if result == nil {
		result, err = s.resolveDefaultList(ctx, tenantID, sku, req, asOf, &trace)
		if err != nil {
			return nil, err
		}
	}
	if result == nil {
		s.metrics.ObserveResolve("not_found", time.Since(started))
		return nil, resolutiondomain.ErrPriceNotFound
	}

	result.ResolutionPath = trace
	s.metrics.ObserveResolve(string(result.Source), time.Since(started))
	return result, nil
}

// ResolveMany resolves independent SKUs with bounded parallelism. Every
// requested SKU is present in the output; failed SKUs map to nil.
func (s *Service) ResolveMany(ctx context.Context, req resolutiondomain.ResolveManyRequest) (map[string]*resolutiondomain.PriceResult, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return nil, resolutiondomain.ErrInvalidTenant
	}

	results := make(map[string]*resolutiondomain.PriceResult, len(req.SKUs))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.concurrency)

	for _, sku := range req.SKUs {
		wg.Add(1)
		go func(sku string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := s.Resolve(ctx, resolutiondomain.ResolveRequest{
				SKU:            sku,
				Quantity:       req.Quantity,
				CustomerID:     req.CustomerID,
				OrganizationID: req.OrganizationID,
				ContractID:     req.ContractID,
				Currency:       req.Currency,
				AsOf:           req.AsOf,
			})
			if err != nil {
				s.log.Debug("batch resolution miss", zap.String("sku", sku), zap.Error(err))
				result = nil
			}

			mu.Lock()
			results[sku] = result
			mu.Unlock()
		}(sku)
	}

	wg.Wait()
	return results, nil
}

func (s *Service) resolveOverride(
	ctx context.Context,
	tenantID snowflake.ID,
	sku string,
	req resolutiondomain.ResolveRequest,
	asOf time.Time,
	trace *[]resolutiondomain.ResolutionStep,
) (*resolutiondomain.PriceResult, error) {
	scopes := buildScopes(req)
	if len(scopes) == 0 {
		return nil, nil
	}

	overrides, err := s.overrideRepo.ListActiveForScopes(ctx, s.db, tenantID, scopes)
	if err != nil {
		return nil, err
	}

	lists := make(map[snowflake.ID]*pricelistdomain.PriceList)
	candidates := overrides[:0]
	for i := range overrides {
		o := overrides[i]
		if o.Item == nil || o.Item.SKU != sku {
			continue
		}
		if !o.EffectiveAt(asOf) || !o.AdmitsQuantity(req.Quantity) || !o.Item.EffectiveAt(asOf) {
			continue
		}
		list, seen := lists[o.Item.PriceListID]
		if !seen {
			list, err = s.priceListRepo.FindByID(ctx, s.db, tenantID, o.Item.PriceListID)
			if err != nil {
				return nil, err
			}
			lists[o.Item.PriceListID] = list
		}
		// An override whose item sits on another tenant's list is never
		// honored, whatever row managed to reference it.
		if list == nil {
			continue
		}
		candidates = append(candidates, o)
	}

	if len(candidates) == 0 {
		*trace = append(*trace, resolutiondomain.ResolutionStep{
			Source:   resolutiondomain.SourceOverride,
			Selected: false,
			Reason:   "no matching override",
		})
		return nil, nil
	}

	// Deterministic tie-break: narrowest scope first (contract over customer
	// over organization), then soonest effective-from, then lowest id.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Specificity() != candidates[j].Specificity() {
			return candidates[i].Specificity() > candidates[j].Specificity()
		}
		if !candidates[i].EffectiveFrom.Equal(candidates[j].EffectiveFrom) {
			return candidates[i].EffectiveFrom.Before(candidates[j].EffectiveFrom)
		}
		return candidates[i].ID < candidates[j].ID
	})

	winner := candidates[0]
	item := winner.Item
	price := winner.Apply(item.ListPrice)
	price, atMin, atMax := clampPrice(price, item.MinPrice, item.MaxPrice)

	*trace = append(*trace, resolutiondomain.ResolutionStep{
		Source:      resolutiondomain.SourceOverride,
		PriceListID: &item.PriceListID,
		Price:       &price,
		Selected:    true,
		Reason:      fmt.Sprintf("%s override for %s %s", winner.OverrideType, winner.ScopeType, winner.ScopeID),
	})

	result := s.buildResult(item, item.PriceListID, price, resolutiondomain.SourceOverride, nil, req, asOf)
	result.IsAtMinPrice = atMin
	result.IsAtMaxPrice = atMax
	if req.Currency == nil {
		result.Currency = listCurrency(item, lists[item.PriceListID])
	}
	return result, nil
}

func (s *Service) resolveCustomerLists(
	ctx context.Context,
	tenantID snowflake.ID,
	sku string,
	req resolutiondomain.ResolveRequest,
	asOf time.Time,
	trace *[]resolutiondomain.ResolutionStep,
) (*resolutiondomain.PriceResult, error) {
	if req.CustomerID == nil || strings.TrimSpace(*req.CustomerID) == "" {
		return nil, nil
	}

	assignees := []assignmentdomain.Assignee{
		{Type: assignmentdomain.AssigneeCustomer, ID: strings.TrimSpace(*req.CustomerID)},
	}
	if req.OrganizationID != nil && strings.TrimSpace(*req.OrganizationID) != "" {
		assignees = append(assignees, assignmentdomain.Assignee{
			Type: assignmentdomain.AssigneeOrganization, ID: strings.TrimSpace(*req.OrganizationID),
		})
	}

	assignments, err := s.assignmentRepo.ListForAssignees(ctx, s.db, tenantID, assignees)
	if err != nil {
		return nil, err
	}

	// Assignments arrive ordered by priority descending; the first list with
	// an effective item wins. Not cumulative, not best-price.
	for i := range assignments {
		assignment := assignments[i]
		if !assignment.EffectiveAt(asOf) {
			continue
		}

		list, err := s.priceListRepo.FindByID(ctx, s.db, tenantID, assignment.PriceListID)
		if err != nil {
			return nil, err
		}
		if list == nil || list.Status != pricelistdomain.StatusActive || !list.EffectiveAt(asOf) {
			continue
		}

		item, err := s.itemRepo.FindBySKU(ctx, s.db, list.ID, sku)
		if err != nil {
			return nil, err
		}
		if item == nil || !item.EffectiveAt(asOf) {
			*trace = append(*trace, resolutiondomain.ResolutionStep{
				Source:      resolutiondomain.SourceCustomerList,
				PriceListID: &list.ID,
				Selected:    false,
				Reason:      fmt.Sprintf("list %s has no effective item for sku", list.Code),
			})
			continue
		}

		price, appliedBreak := ResolveQuantityBreak(item.QuantityBreaks, req.Quantity, item.ListPrice)
		price = Round(price, list.RoundingRule, list.RoundingPrecision)
		price, atMin, atMax := clampPrice(price, item.MinPrice, item.MaxPrice)

		*trace = append(*trace, resolutiondomain.ResolutionStep{
			Source:      resolutiondomain.SourceCustomerList,
			PriceListID: &list.ID,
			Price:       &price,
			Selected:    true,
			Reason:      fmt.Sprintf("assigned list %s (priority %d)", list.Code, assignment.Priority),
		})

		result := s.buildResult(item, list.ID, price, resolutiondomain.SourceCustomerList, appliedBreak, req, asOf)
		result.IsAtMinPrice = atMin
		result.IsAtMaxPrice = atMax
		if req.Currency == nil {
			result.Currency = listCurrency(item, list)
		}
		return result, nil
	}

	if len(assignments) > 0 {
		*trace = append(*trace, resolutiondomain.ResolutionStep{
			Source:   resolutiondomain.SourceCustomerList,
			Selected: false,
			Reason:   "no assigned list priced the sku",
		})
	}
	return nil, nil
}

func (s *Service) resolveDefaultList(
	ctx context.Context,
	tenantID snowflake.ID,
	sku string,
	req resolutiondomain.ResolveRequest,
	asOf time.Time,
	trace *[]resolutiondomain.ResolutionStep,
) (*resolutiondomain.PriceResult, error) {
	list, err := s.priceListRepo.FindDefault(ctx, s.db, tenantID, asOf)
	if err != nil {
		return nil, err
	}
	if list == nil {
		*trace = append(*trace, resolutiondomain.ResolutionStep{
			Source:   resolutiondomain.SourceDefaultList,
			Selected: false,
			Reason:   "tenant has no default list",
		})
		return nil, nil
	}

	item, err := s.itemRepo.FindBySKU(ctx, s.db, list.ID, sku)
	if err != nil {
		return nil, err
	}
	if item == nil || !item.EffectiveAt(asOf) {
		*trace = append(*trace, resolutiondomain.ResolutionStep{
			Source:      resolutiondomain.SourceDefaultList,
			PriceListID: &list.ID,
			Selected:    false,
			Reason:      fmt.Sprintf("default list %s has no effective item for sku", list.Code),
		})
		return nil, nil
	}

	price, appliedBreak := ResolveQuantityBreak(item.QuantityBreaks, req.Quantity, item.ListPrice)
	price = Round(price, list.RoundingRule, list.RoundingPrecision)
	price, atMin, atMax := clampPrice(price, item.MinPrice, item.MaxPrice)

	*trace = append(*trace, resolutiondomain.ResolutionStep{
		Source:      resolutiondomain.SourceDefaultList,
		PriceListID: &list.ID,
		Price:       &price,
		Selected:    true,
		Reason:      fmt.Sprintf("default list %s", list.Code),
	})

	result := s.buildResult(item, list.ID, price, resolutiondomain.SourceDefaultList, appliedBreak, req, asOf)
	result.IsAtMinPrice = atMin
	result.IsAtMaxPrice = atMax
	if req.Currency == nil {
		result.Currency = listCurrency(item, list)
	}
	return result, nil
}

func (s *Service) buildResult(
	item *itemdomain.PriceListItem,
	priceListID snowflake.ID,
	unitPrice decimal.Decimal,
	source resolutiondomain.PriceSource,
	appliedBreak *itemdomain.QuantityBreak,
	req resolutiondomain.ResolveRequest,
	asOf time.Time,
) *resolutiondomain.PriceResult {
	result := &resolutiondomain.PriceResult{
		SKU:             item.SKU,
		Quantity:        req.Quantity,
		UnitPrice:       unitPrice,
		BasePrice:       item.BasePrice,
		ListPrice:       item.ListPrice,
		PriceListID:     priceListID,
		PriceListItemID: item.ID,
		Source:          source,
		AppliedBreak:    appliedBreak,
		ResolvedAt:      asOf,
	}

	discount := item.ListPrice.Sub(unitPrice)
	if discount.Sign() > 0 && item.ListPrice.Sign() > 0 {
		result.DiscountAmount = discount
		result.DiscountPercent = discount.Div(item.ListPrice).Mul(hundred).Round(2)
	} else {
		result.DiscountAmount = decimal.Zero
		result.DiscountPercent = decimal.Zero
	}

	if item.Cost != nil {
		margin := unitPrice.Sub(*item.Cost)
		result.Margin = &margin
	}

	// Currency mismatch is surfaced, never converted.
	actual := ""
	if item.Currency != nil {
		actual = *item.Currency
	}
	if req.Currency != nil {
		requested := strings.ToUpper(strings.TrimSpace(*req.Currency))
		result.Currency = requested
		if actual != "" && actual != requested {
			original := actual
			result.OriginalCurrency = &original
		}
	} else if actual != "" {
		result.Currency = actual
	}

	return result
}

func buildScopes(req resolutiondomain.ResolveRequest) []overridedomain.Scope {
	scopes := make([]overridedomain.Scope, 0, 3)
	if req.CustomerID != nil && strings.TrimSpace(*req.CustomerID) != "" {
		scopes = append(scopes, overridedomain.Scope{Type: overridedomain.ScopeCustomer, ID: strings.TrimSpace(*req.CustomerID)})
	}
	if req.OrganizationID != nil && strings.TrimSpace(*req.OrganizationID) != "" {
		scopes = append(scopes, overridedomain.Scope{Type: overridedomain.ScopeOrganization, ID: strings.TrimSpace(*req.OrganizationID)})
	}
	if req.ContractID != nil && strings.TrimSpace(*req.ContractID) != "" {
		scopes = append(scopes, overridedomain.Scope{Type: overridedomain.ScopeContract, ID: strings.TrimSpace(*req.ContractID)})
	}
	return scopes
}

func clampPrice(price decimal.Decimal, minPrice, maxPrice *decimal.Decimal) (decimal.Decimal, bool, bool) {
	atMin, atMax := false, false
	if minPrice != nil && price.LessThan(*minPrice) {
		price = *minPrice
		atMin = true
	}
	if maxPrice != nil && price.GreaterThan(*maxPrice) {
		price = *maxPrice
		atMax = true
	}
	return price, atMin, atMax
}

func listCurrency(item *itemdomain.PriceListItem, list *pricelistdomain.PriceList) string {
	if item.Currency != nil && *item.Currency != "" {
		return *item.Currency
	}
	return list.Currency
}
