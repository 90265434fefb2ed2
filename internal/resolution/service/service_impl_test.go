package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	assignmentdomain "github.com/smallbiznis/pricebook/internal/assignment/domain"
	assignmentrepo "github.com/smallbiznis/pricebook/internal/assignment/repository"
	"github.com/smallbiznis/pricebook/internal/clock"
	"github.com/smallbiznis/pricebook/internal/config"
	overridedomain "github.com/smallbiznis/pricebook/internal/override/domain"
	overriderepo "github.com/smallbiznis/pricebook/internal/override/repository"
	pricelistdomain "github.com/smallbiznis/pricebook/internal/pricelist/domain"
	pricelistrepo "github.com/smallbiznis/pricebook/internal/pricelist/repository"
	itemdomain "github.com/smallbiznis/pricebook/internal/pricelistitem/domain"
	itemrepo "github.com/smallbiznis/pricebook/internal/pricelistitem/repository"
	resolutiondomain "github.com/smallbiznis/pricebook/internal/resolution/domain"
	"github.com/smallbiznis/pricebook/internal/tenantctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	node   *snowflake.Node
	clock  *clock.FakeClock
	svc    resolutiondomain.Service
	tenant snowflake.ID
	ctx    context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&pricelistdomain.PriceList{},
		&itemdomain.PriceListItem{},
		&assignmentdomain.CustomerPriceAssignment{},
		&overridedomain.PriceOverride{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	tenant := node.Generate()

	svc := New(Params{
		DB:             db,
		Log:            zap.NewNop(),
		Clock:          fc,
		Config:         config.Config{ResolveConcurrency: 4},
		OverrideRepo:   overriderepo.Provide(),
		AssignmentRepo: assignmentrepo.Provide(),
		PriceListRepo:  pricelistrepo.Provide(),
		ItemRepo:       itemrepo.Provide(),
	})

	return &fixture{
		db:     db,
		node:   node,
		clock:  fc,
		svc:    svc,
		tenant: tenant,
		ctx:    tenantctx.WithTenantID(context.Background(), tenant),
	}
}

func (f *fixture) seedList(t *testing.T, code string, isDefault bool, priority int32) *pricelistdomain.PriceList {
	t.Helper()
	list := &pricelistdomain.PriceList{
		ID:                f.node.Generate(),
		TenantID:          f.tenant,
		Code:              code,
		Name:              code,
		Type:              pricelistdomain.TypeStandard,
		Status:            pricelistdomain.StatusActive,
		Currency:          "USD",
		Priority:          priority,
		EffectiveFrom:     f.clock.Now().Add(-24 * time.Hour),
		RoundingRule:      pricelistdomain.RoundNearest,
		RoundingPrecision: 2,
		IsDefault:         isDefault,
		CreatedAt:         f.clock.Now(),
		UpdatedAt:         f.clock.Now(),
	}
	require.NoError(t, f.db.Create(list).Error)
	return list
}

func (f *fixture) seedItem(t *testing.T, list *pricelistdomain.PriceList, sku, listPrice string, mutate func(*itemdomain.PriceListItem)) *itemdomain.PriceListItem {
	t.Helper()
	item := &itemdomain.PriceListItem{
		ID:          f.node.Generate(),
		PriceListID: list.ID,
		SKU:         sku,
		BasePrice:   dec(listPrice),
		ListPrice:   dec(listPrice),
		IsActive:    true,
		CreatedAt:   f.clock.Now(),
		UpdatedAt:   f.clock.Now(),
	}
	if mutate != nil {
		mutate(item)
	}
	require.NoError(t, f.db.Create(item).Error)
	return item
}

func (f *fixture) seedAssignment(t *testing.T, list *pricelistdomain.PriceList, customerID string, priority int32) {
	t.Helper()
	assignment := &assignmentdomain.CustomerPriceAssignment{
		ID:            f.node.Generate(),
		TenantID:      f.tenant,
		PriceListID:   list.ID,
		AssigneeType:  assignmentdomain.AssigneeCustomer,
		AssigneeID:    customerID,
		Priority:      priority,
		EffectiveFrom: f.clock.Now().Add(-time.Hour),
		IsActive:      true,
		CreatedAt:     f.clock.Now(),
		UpdatedAt:     f.clock.Now(),
	}
	require.NoError(t, f.db.Create(assignment).Error)
}

func (f *fixture) seedOverride(t *testing.T, item *itemdomain.PriceListItem, scopeType overridedomain.ScopeType, scopeID string, overrideType overridedomain.OverrideType, value string) *overridedomain.PriceOverride {
	t.Helper()
	override := &overridedomain.PriceOverride{
		ID:              f.node.Generate(),
		TenantID:        f.tenant,
		ScopeType:       scopeType,
		ScopeID:         scopeID,
		PriceListItemID: item.ID,
		OverrideType:    overrideType,
		OverrideValue:   dec(value),
		EffectiveFrom:   f.clock.Now().Add(-time.Hour),
		Status:          overridedomain.StatusActive,
		CreatedAt:       f.clock.Now(),
		UpdatedAt:       f.clock.Now(),
	}
	require.NoError(t, f.db.Create(override).Error)
	return override
}

func strPtr(s string) *string { return &s }

func TestResolveDefaultListFallback(t *testing.T) {
	f := newFixture(t)
	list := f.seedList(t, "DEFAULT-A", true, 0)
	f.seedItem(t, list, "SKU-1", "50.00", nil)

	result, err := f.svc.Resolve(f.ctx, resolutiondomain.ResolveRequest{SKU: "SKU-1", Quantity: 1})
	require.NoError(t, err)
	assert.True(t, result.UnitPrice.Equal(dec("50.00")))
	assert.Equal(t, resolutiondomain.SourceDefaultList, result.Source)
	assert.Equal(t, list.ID, result.PriceListID)
	assert.Equal(t, "USD", result.Currency)
	require.NotEmpty(t, result.ResolutionPath)
	assert.True(t, result.ResolutionPath[len(result.ResolutionPath)-1].Selected)
}

func TestResolveOverrideBeatsLists(t *testing.T) {
	f := newFixture(t)
	list := f.seedList(t, "DEFAULT-B", true, 0)
	item := f.seedItem(t, list, "SKU-2", "50.00", nil)
	f.seedOverride(t, item, overridedomain.ScopeCustomer, "cust-1", overridedomain.OverrideFixedPrice, "42.00")

	result, err := f.svc.Resolve(f.ctx, resolutiondomain.ResolveRequest{
		SKU:        "SKU-2",
		Quantity:   1,
		CustomerID: strPtr("cust-1"),
	})
	require.NoError(t, err)
	assert.True(t, result.UnitPrice.Equal(dec("42.00")), "got %s", result.UnitPrice)
	assert.Equal(t, resolutiondomain.SourceOverride, result.Source)

	// Another customer without the override gets the list price.
	other, err := f.svc.Resolve(f.ctx, resolutiondomain.ResolveRequest{
		SKU:        "SKU-2",
		Quantity:   1,
		CustomerID: strPtr("cust-2"),
	})
	require.NoError(t, err)
	assert.True(t, other.UnitPrice.Equal(dec("50.00")))
}

func TestResolveNarrowerScopeWinsTie(t *testing.T) {
	f := newFixture(t)
	list := f.seedList(t, "DEFAULT-C", true, 0)
	item := f.seedItem(t, list, "SKU-3", "100.00", nil)
	f.seedOverride(t, item, overridedomain.ScopeOrganization, "org-1", overridedomain.OverrideFixedPrice, "90.00")
	f.seedOverride(t, item, overridedomain.ScopeContract, "contract-1", overridedomain.OverrideFixedPrice, "80.00")

	result, err := f.svc.Resolve(f.ctx, resolutiondomain.ResolveRequest{
		SKU:            "SKU-3",
		Quantity:       1,
		CustomerID:     strPtr("cust-1"),
		OrganizationID: strPtr("org-1"),
		ContractID:     strPtr("contract-1"),
	})
	require.NoError(t, err)
	assert.True(t, result.UnitPrice.Equal(dec("80.00")), "contract scope should win, got %s", result.UnitPrice)
}

func TestResolveCustomerListBeatsDefault(t *testing.T) {
	f := newFixture(t)
	def := f.seedList(t, "DEFAULT-D", true, 0)
	f.seedItem(t, def, "SKU-4", "50.00", nil)

	special := f.seedList(t, "VIP-D", false, 10)
	f.seedItem(t, special, "SKU-4", "45.00", nil)
	f.seedAssignment(t, special, "cust-vip", 10)

	result, err := f.svc.Resolve(f.ctx, resolutiondomain.ResolveRequest{
		SKU:        "SKU-4",
		Quantity:   1,
		CustomerID: strPtr("cust-vip"),
	})
	require.NoError(t, err)
	assert.True(t, result.UnitPrice.Equal(dec("45.00")))
	assert.Equal(t, resolutiondomain.SourceCustomerList, result.Source)
	assert.Equal(t, special.ID, result.PriceListID)
}

func TestResolveQuantityBreakThenRoundThenClamp(t *testing.T) {
	f := newFixture(t)
	list := f.seedList(t, "DEFAULT-E", true, 0)
	f.seedItem(t, list, "SKU-5", "100.00", func(item *itemdomain.PriceListItem) {
		minPrice := dec("10.00")
		item.MinPrice = &minPrice
		item.QuantityBreaks = datatypes.NewJSONSlice([]itemdomain.QuantityBreak{
			{MinQuantity: 100, DiscountPercent: decPtr("95")},
		})
	})

	result, err := f.svc.Resolve(f.ctx, resolutiondomain.ResolveRequest{SKU: "SKU-5", Quantity: 100})
	require.NoError(t, err)
	// 95% off would be 5.00; the floor pins it at 10.00.
	assert.True(t, result.UnitPrice.Equal(dec("10.00")), "got %s", result.UnitPrice)
	assert.True(t, result.IsAtMinPrice)
	assert.False(t, result.IsAtMaxPrice)
}

func TestResolveNotFound(t *testing.T) {
	f := newFixture(t)
	f.seedList(t, "DEFAULT-F", true, 0)

	_, err := f.svc.Resolve(f.ctx, resolutiondomain.ResolveRequest{SKU: "MISSING", Quantity: 1})
	assert.ErrorIs(t, err, resolutiondomain.ErrPriceNotFound)
}

func TestResolveExpiredItemIsInvisible(t *testing.T) {
	f := newFixture(t)
	list := f.seedList(t, "DEFAULT-G", true, 0)
	f.seedItem(t, list, "SKU-7", "50.00", func(item *itemdomain.PriceListItem) {
		expired := f.clock.Now().Add(-time.Hour)
		item.EffectiveTo = &expired
	})

	_, err := f.svc.Resolve(f.ctx, resolutiondomain.ResolveRequest{SKU: "SKU-7", Quantity: 1})
	assert.ErrorIs(t, err, resolutiondomain.ErrPriceNotFound)
}

func TestResolveValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Resolve(f.ctx, resolutiondomain.ResolveRequest{SKU: " ", Quantity: 1})
	assert.ErrorIs(t, err, resolutiondomain.ErrInvalidSKU)

	_, err = f.svc.Resolve(f.ctx, resolutiondomain.ResolveRequest{SKU: "SKU", Quantity: 0})
	assert.ErrorIs(t, err, resolutiondomain.ErrInvalidQuantity)

	_, err = f.svc.Resolve(context.Background(), resolutiondomain.ResolveRequest{SKU: "SKU", Quantity: 1})
	assert.ErrorIs(t, err, resolutiondomain.ErrInvalidTenant)
}

func TestResolveManyIsolatesFailures(t *testing.T) {
	f := newFixture(t)
	list := f.seedList(t, "DEFAULT-H", true, 0)
	f.seedItem(t, list, "SKU-A", "10.00", nil)
	f.seedItem(t, list, "SKU-B", "20.00", nil)

	results, err := f.svc.ResolveMany(f.ctx, resolutiondomain.ResolveManyRequest{
		SKUs:     []string{"SKU-A", "SKU-B", "SKU-MISSING"},
		Quantity: 1,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.NotNil(t, results["SKU-A"])
	assert.True(t, results["SKU-A"].UnitPrice.Equal(dec("10.00")))
	require.NotNil(t, results["SKU-B"])
	assert.True(t, results["SKU-B"].UnitPrice.Equal(dec("20.00")))
	assert.Nil(t, results["SKU-MISSING"])
}

func TestResolveCurrencyMismatchSurfaced(t *testing.T) {
	f := newFixture(t)
	list := f.seedList(t, "DEFAULT-I", true, 0)
	f.seedItem(t, list, "SKU-8", "50.00", func(item *itemdomain.PriceListItem) {
		item.Currency = strPtr("EUR")
	})

	result, err := f.svc.Resolve(f.ctx, resolutiondomain.ResolveRequest{
		SKU:      "SKU-8",
		Quantity: 1,
		Currency: strPtr("usd"),
	})
	require.NoError(t, err)
	assert.Equal(t, "USD", result.Currency)
	require.NotNil(t, result.OriginalCurrency)
	assert.Equal(t, "EUR", *result.OriginalCurrency)
}

func TestResolveSkipsOverrideOnForeignList(t *testing.T) {
	f := newFixture(t)

	foreignTenant := f.node.Generate()
	foreign := &pricelistdomain.PriceList{
		ID:                f.node.Generate(),
		TenantID:          foreignTenant,
		Code:              "FOREIGN-DEFAULT",
		Name:              "FOREIGN-DEFAULT",
		Type:              pricelistdomain.TypeStandard,
		Status:            pricelistdomain.StatusActive,
		Currency:          "USD",
		EffectiveFrom:     f.clock.Now().Add(-24 * time.Hour),
		RoundingRule:      pricelistdomain.RoundNearest,
		RoundingPrecision: 2,
		IsDefault:         true,
		CreatedAt:         f.clock.Now(),
		UpdatedAt:         f.clock.Now(),
	}
	require.NoError(t, f.db.Create(foreign).Error)
	hidden := f.seedItem(t, foreign, "HIDDEN-SKU", "100.00", nil)

	// A stray override row in this tenant pointing at another tenant's
	// item must never surface that item's price.
	f.seedOverride(t, hidden, overridedomain.ScopeCustomer, "cust-9", overridedomain.OverrideFixedPrice, "1.00")

	_, err := f.svc.Resolve(f.ctx, resolutiondomain.ResolveRequest{
		SKU:        "HIDDEN-SKU",
		Quantity:   1,
		CustomerID: strPtr("cust-9"),
	})
	assert.ErrorIs(t, err, resolutiondomain.ErrPriceNotFound)
}

func TestResolveOverrideCurrencyFromList(t *testing.T) {
	f := newFixture(t)
	list := f.seedList(t, "DEFAULT-J", true, 0)
	item := f.seedItem(t, list, "SKU-9", "80.00", nil)
	f.seedOverride(t, item, overridedomain.ScopeCustomer, "cust-3", overridedomain.OverrideFixedPrice, "60.00")

	result, err := f.svc.Resolve(f.ctx, resolutiondomain.ResolveRequest{
		SKU:        "SKU-9",
		Quantity:   1,
		CustomerID: strPtr("cust-3"),
	})
	require.NoError(t, err)
	assert.Equal(t, resolutiondomain.SourceOverride, result.Source)
	assert.True(t, result.UnitPrice.Equal(dec("60.00")))
	assert.Equal(t, "USD", result.Currency)
}
