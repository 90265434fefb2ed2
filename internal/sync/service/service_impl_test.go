package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/pricebook/internal/clock"
	"github.com/smallbiznis/pricebook/internal/config"
	pricelistdomain "github.com/smallbiznis/pricebook/internal/pricelist/domain"
	pricelistrepo "github.com/smallbiznis/pricebook/internal/pricelist/repository"
	itemdomain "github.com/smallbiznis/pricebook/internal/pricelistitem/domain"
	itemrepo "github.com/smallbiznis/pricebook/internal/pricelistitem/repository"
	itemservice "github.com/smallbiznis/pricebook/internal/pricelistitem/service"
	syncdomain "github.com/smallbiznis/pricebook/internal/sync/domain"
	"github.com/smallbiznis/pricebook/internal/sync/repository"
	"github.com/smallbiznis/pricebook/internal/tenantctx"
	"github.com/smallbiznis/pricebook/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type syncFixture struct {
	db     *gorm.DB
	node   *snowflake.Node
	clock  *clock.FakeClock
	svc    syncdomain.Service
	tenant snowflake.ID
	ctx    context.Context
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&pricelistdomain.PriceList{},
		&itemdomain.PriceListItem{},
		&syncdomain.PriceListSyncJob{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC))
	tenant := node.Generate()

	items := itemservice.New(itemservice.Params{
		DB:            db,
		Log:           zap.NewNop(),
		GenID:         node,
		Clock:         fc,
		Repo:          itemrepo.Provide(),
		PriceListRepo: pricelistrepo.Provide(),
	})

	svc := New(Params{
		DB:            db,
		Log:           zap.NewNop(),
		GenID:         node,
		Clock:         fc,
		Config:        config.Config{SyncBatchSize: 2},
		Repo:          repository.Provide(),
		PriceListRepo: pricelistrepo.Provide(),
		ItemRepo:      itemrepo.Provide(),
		Items:         items,
	})

	return &syncFixture{
		db:     db,
		node:   node,
		clock:  fc,
		svc:    svc,
		tenant: tenant,
		ctx:    tenantctx.WithTenantID(context.Background(), tenant),
	}
}

func importItem(sku, price string) itemdomain.ItemInput {
	return itemdomain.ItemInput{
		SKU:       sku,
		BasePrice: decimal.RequireFromString(price),
		ListPrice: decimal.RequireFromString(price),
	}
}

func (f *syncFixture) uniqueCode(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, f.node.Generate())
}

func TestImportAutoCreatesList(t *testing.T) {
	f := newSyncFixture(t)
	code := f.uniqueCode("ERP")

	job, err := f.svc.Import(f.ctx, syncdomain.ImportRequest{
		ListCode: code,
		FullSync: true,
		Items: []itemdomain.ItemInput{
			importItem("A-1", "10.00"),
			importItem("A-2", "20.00"),
			importItem("A-3", "30.00"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, syncdomain.JobCompleted, job.Status)
	assert.Equal(t, syncdomain.JobFullSync, job.JobType)
	assert.Equal(t, 3, job.TotalItems)
	assert.Equal(t, 3, job.ProcessedItems)
	assert.Equal(t, 3, job.SuccessItems)
	assert.Equal(t, 0, job.ErrorItems)

	var list pricelistdomain.PriceList
	require.NoError(t, f.db.Where("tenant_id = ? AND code = ?", f.tenant, code).First(&list).Error)
	assert.Equal(t, pricelistdomain.StatusActive, list.Status)
	assert.Equal(t, pricelistdomain.RoundNearest, list.RoundingRule)
	assert.Equal(t, int32(2), list.RoundingPrecision)
	require.NotNil(t, list.SyncStatus)
	assert.Equal(t, string(syncdomain.JobCompleted), *list.SyncStatus)
	assert.NotNil(t, list.LastSyncAt)

	require.NotNil(t, job.Summary)
	summary := job.Summary.Data()
	assert.Equal(t, 3, summary.ItemsCreated)
	assert.Equal(t, 0, summary.ItemsUpdated)
}

func TestImportPartialFailureStillCompletes(t *testing.T) {
	f := newSyncFixture(t)

	job, err := f.svc.Import(f.ctx, syncdomain.ImportRequest{
		ListCode: f.uniqueCode("PARTIAL"),
		FullSync: true,
		Items: []itemdomain.ItemInput{
			importItem("P-1", "10.00"),
			importItem("", "20.00"),
			importItem("P-3", "30.00"),
			importItem("P-4", "-1.00"),
			importItem("P-5", "50.00"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, syncdomain.JobCompleted, job.Status)
	assert.Equal(t, 3, job.SuccessItems)
	assert.Equal(t, 2, job.ErrorItems)
	assert.Equal(t, 5, job.ProcessedItems)
	assert.Len(t, []syncdomain.SyncError(job.Errors), 2)
}

func TestImportAllFailedMarksJobFailed(t *testing.T) {
	f := newSyncFixture(t)

	job, err := f.svc.Import(f.ctx, syncdomain.ImportRequest{
		ListCode: f.uniqueCode("ALLBAD"),
		FullSync: true,
		Items: []itemdomain.ItemInput{
			importItem("", "1.00"),
			importItem("X-1", "-2.00"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, syncdomain.JobFailed, job.Status)
	assert.Equal(t, 0, job.SuccessItems)
	assert.Equal(t, 2, job.ErrorItems)
}

func TestImportEmptyPayloadCompletes(t *testing.T) {
	f := newSyncFixture(t)

	job, err := f.svc.Import(f.ctx, syncdomain.ImportRequest{
		ListCode: f.uniqueCode("EMPTY"),
		FullSync: true,
	})
	require.NoError(t, err)
	assert.Equal(t, syncdomain.JobCompleted, job.Status)
	assert.Equal(t, 0, job.TotalItems)
}

func TestImportSummaryTracksPriceChanges(t *testing.T) {
	f := newSyncFixture(t)
	code := f.uniqueCode("DELTA-STATS")

	_, err := f.svc.Import(f.ctx, syncdomain.ImportRequest{
		ListCode: code,
		FullSync: true,
		Items: []itemdomain.ItemInput{
			importItem("S-UP", "100.00"),
			importItem("S-DOWN", "100.00"),
			importItem("S-FLAT", "100.00"),
		},
	})
	require.NoError(t, err)

	job, err := f.svc.Import(f.ctx, syncdomain.ImportRequest{
		ListCode: code,
		FullSync: true,
		Items: []itemdomain.ItemInput{
			importItem("S-UP", "150.00"),
			importItem("S-DOWN", "90.00"),
			importItem("S-FLAT", "100.00"),
		},
	})
	require.NoError(t, err)
	require.NotNil(t, job.Summary)
	summary := job.Summary.Data()

	assert.Equal(t, 0, summary.ItemsCreated)
	assert.Equal(t, 3, summary.ItemsUpdated)
	assert.Equal(t, 1, summary.PricesIncreased)
	assert.Equal(t, 1, summary.PricesDecreased)
	assert.Equal(t, 1, summary.PricesUnchanged)

	require.NotNil(t, summary.LargestIncrease)
	assert.Equal(t, "S-UP", summary.LargestIncrease.SKU)
	assert.True(t, summary.LargestIncrease.ChangePercent.Equal(decimal.RequireFromString("50")))

	require.NotNil(t, summary.LargestDecrease)
	assert.Equal(t, "S-DOWN", summary.LargestDecrease.SKU)
	assert.True(t, summary.LargestDecrease.ChangePercent.Equal(decimal.RequireFromString("-10")))

	// (50 + -10) / 2 changed items
	assert.True(t, summary.AvgChangePercent.Equal(decimal.RequireFromString("20")))
}

func TestCancelJobStateMachine(t *testing.T) {
	f := newSyncFixture(t)

	// A completed job is terminal.
	job, err := f.svc.Import(f.ctx, syncdomain.ImportRequest{
		ListCode: f.uniqueCode("CANCEL"),
		FullSync: true,
		Items:    []itemdomain.ItemInput{importItem("C-1", "1.00")},
	})
	require.NoError(t, err)
	require.Equal(t, syncdomain.JobCompleted, job.Status)

	err = f.svc.CancelJob(f.ctx, job.ID.String())
	assert.ErrorIs(t, err, syncdomain.ErrInvalidState)

	err = f.svc.CancelJob(f.ctx, f.node.Generate().String())
	assert.ErrorIs(t, err, syncdomain.ErrJobNotFound)
}

func TestCancelPendingJob(t *testing.T) {
	f := newSyncFixture(t)

	external := "erp-7"
	list := &pricelistdomain.PriceList{
		ID:                f.node.Generate(),
		TenantID:          f.tenant,
		Code:              f.uniqueCode("LINKED"),
		Name:              "Linked",
		Type:              pricelistdomain.TypeStandard,
		Status:            pricelistdomain.StatusActive,
		Currency:          "USD",
		EffectiveFrom:     f.clock.Now().Add(-time.Hour),
		RoundingRule:      pricelistdomain.RoundNearest,
		RoundingPrecision: 2,
		ExternalID:        &external,
		CreatedAt:         f.clock.Now(),
		UpdatedAt:         f.clock.Now(),
	}
	require.NoError(t, f.db.Create(list).Error)

	jobIDs, err := f.svc.ScheduleBatchSync(f.ctx)
	require.NoError(t, err)
	require.Len(t, jobIDs, 1)

	require.NoError(t, f.svc.CancelJob(f.ctx, jobIDs[0].String()))

	cancelled, err := f.svc.GetJob(f.ctx, jobIDs[0].String())
	require.NoError(t, err)
	assert.Equal(t, syncdomain.JobCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CompletedAt)

	err = f.svc.CancelJob(f.ctx, jobIDs[0].String())
	assert.ErrorIs(t, err, syncdomain.ErrInvalidState)
}

func TestScheduleBatchSyncOnlyLinkedActiveLists(t *testing.T) {
	f := newSyncFixture(t)

	external := "erp-linked"
	linked := &pricelistdomain.PriceList{
		ID:                f.node.Generate(),
		TenantID:          f.tenant,
		Code:              f.uniqueCode("SCHED-LINKED"),
		Name:              "Linked",
		Type:              pricelistdomain.TypeStandard,
		Status:            pricelistdomain.StatusActive,
		Currency:          "USD",
		EffectiveFrom:     f.clock.Now().Add(-time.Hour),
		RoundingRule:      pricelistdomain.RoundNearest,
		RoundingPrecision: 2,
		ExternalID:        &external,
		CreatedAt:         f.clock.Now(),
		UpdatedAt:         f.clock.Now(),
	}
	require.NoError(t, f.db.Create(linked).Error)

	unlinked := &pricelistdomain.PriceList{
		ID:                f.node.Generate(),
		TenantID:          f.tenant,
		Code:              f.uniqueCode("SCHED-LOCAL"),
		Name:              "Local",
		Type:              pricelistdomain.TypeStandard,
		Status:            pricelistdomain.StatusActive,
		Currency:          "USD",
		EffectiveFrom:     f.clock.Now().Add(-time.Hour),
		RoundingRule:      pricelistdomain.RoundNearest,
		RoundingPrecision: 2,
		CreatedAt:         f.clock.Now(),
		UpdatedAt:         f.clock.Now(),
	}
	require.NoError(t, f.db.Create(unlinked).Error)

	jobIDs, err := f.svc.ScheduleBatchSync(f.ctx)
	require.NoError(t, err)
	require.Len(t, jobIDs, 1)

	job, err := f.svc.GetJob(f.ctx, jobIDs[0].String())
	require.NoError(t, err)
	assert.Equal(t, syncdomain.JobPending, job.Status)
	assert.Equal(t, syncdomain.JobDeltaSync, job.JobType)
	assert.Equal(t, linked.ID, job.PriceListID)
}

func TestProcessDeltaUpdatesAndTokenContinuation(t *testing.T) {
	f := newSyncFixture(t)
	code := f.uniqueCode("TOKEN")

	_, err := f.svc.Import(f.ctx, syncdomain.ImportRequest{
		ListCode: code,
		FullSync: true,
		Items: []itemdomain.ItemInput{
			importItem("T-1", "10.00"),
			importItem("T-2", "20.00"),
		},
	})
	require.NoError(t, err)

	var list pricelistdomain.PriceList
	require.NoError(t, f.db.Where("tenant_id = ? AND code = ?", f.tenant, code).First(&list).Error)

	upsert := importItem("T-1", "11.00")
	result, err := f.svc.ProcessDeltaUpdates(f.ctx, syncdomain.DeltaRequest{
		PriceListID: list.ID.String(),
		Updates: []syncdomain.DeltaUpdate{
			{Op: syncdomain.DeltaUpsert, SKU: "T-1", Item: &upsert},
			{Op: syncdomain.DeltaDelete, SKU: "T-2"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Empty(t, result.Errors)
	require.NotEmpty(t, result.NewDeltaToken)

	token, err := f.svc.LastDeltaToken(f.ctx, list.ID.String())
	require.NoError(t, err)
	assert.Equal(t, result.NewDeltaToken, token)

	// T-2 was soft-deactivated, not removed.
	var item itemdomain.PriceListItem
	require.NoError(t, f.db.Where("price_list_id = ? AND sku = ?", list.ID, "T-2").First(&item).Error)
	assert.False(t, item.IsActive)

	// A failed delta run never surfaces its token.
	f.clock.Advance(time.Minute)
	failed, err := f.svc.ProcessDeltaUpdates(f.ctx, syncdomain.DeltaRequest{
		PriceListID: list.ID.String(),
		DeltaToken:  &token,
		Updates: []syncdomain.DeltaUpdate{
			{Op: syncdomain.DeltaDelete, SKU: "NO-SUCH-SKU"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, failed.Processed)
	require.Len(t, failed.Errors, 1)

	latest, err := f.svc.LastDeltaToken(f.ctx, list.ID.String())
	require.NoError(t, err)
	assert.Equal(t, token, latest)

	// Tokens order by mint time.
	f.clock.Advance(time.Minute)
	next, err := f.svc.ProcessDeltaUpdates(f.ctx, syncdomain.DeltaRequest{
		PriceListID: list.ID.String(),
		DeltaToken:  &token,
		Updates: []syncdomain.DeltaUpdate{
			{Op: syncdomain.DeltaUpsert, SKU: "T-3", Item: func() *itemdomain.ItemInput { in := importItem("T-3", "30.00"); return &in }()},
		},
	})
	require.NoError(t, err)
	assert.Greater(t, next.NewDeltaToken, token)
}

func TestProcessDeltaUnknownList(t *testing.T) {
	f := newSyncFixture(t)

	_, err := f.svc.ProcessDeltaUpdates(f.ctx, syncdomain.DeltaRequest{
		PriceListID: f.node.Generate().String(),
	})
	assert.ErrorIs(t, err, syncdomain.ErrPriceListNotFound)
}

func TestListJobsPaginates(t *testing.T) {
	f := newSyncFixture(t)
	code := f.uniqueCode("PAGED")

	for i := 0; i < 3; i++ {
		_, err := f.svc.Import(f.ctx, syncdomain.ImportRequest{
			ListCode: code,
			FullSync: true,
			Items:    []itemdomain.ItemInput{importItem(fmt.Sprintf("PG-%d", i), "1.00")},
		})
		require.NoError(t, err)
	}

	var list pricelistdomain.PriceList
	require.NoError(t, f.db.Where("tenant_id = ? AND code = ?", f.tenant, code).First(&list).Error)

	first, info, err := f.svc.ListJobs(f.ctx, list.ID.String(), pagination.Pagination{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.True(t, info.HasMore)
	require.NotEmpty(t, info.NextPageToken)
	assert.True(t, first[0].ID > first[1].ID)

	rest, info, err := f.svc.ListJobs(f.ctx, list.ID.String(), pagination.Pagination{
		PageSize:  2,
		PageToken: info.NextPageToken,
	})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.False(t, info.HasMore)
	assert.True(t, rest[0].ID < first[1].ID)
}

func TestGetJobScopedToTenant(t *testing.T) {
	f := newSyncFixture(t)

	job, err := f.svc.Import(f.ctx, syncdomain.ImportRequest{
		ListCode: f.uniqueCode("SCOPED"),
		FullSync: true,
		Items:    []itemdomain.ItemInput{importItem("G-1", "1.00")},
	})
	require.NoError(t, err)

	otherTenant := tenantctx.WithTenantID(context.Background(), f.node.Generate())
	_, err = f.svc.GetJob(otherTenant, job.ID.String())
	assert.ErrorIs(t, err, syncdomain.ErrJobNotFound)
}

// cancellingItemService delegates to the real item service and then flips
// the running job to CANCELLED, the way an operator cancelling through the
// API would land between two batches.
type cancellingItemService struct {
	itemdomain.Service
	db    *gorm.DB
	calls int
}

func (c *cancellingItemService) BulkUpsert(ctx context.Context, priceListID string, items []itemdomain.ItemInput) (*itemdomain.BulkUpsertResult, error) {
	c.calls++
	result, err := c.Service.BulkUpsert(ctx, priceListID, items)
	c.db.Model(&syncdomain.PriceListSyncJob{}).
		Where("status = ?", syncdomain.JobRunning).
		Update("status", syncdomain.JobCancelled)
	return result, err
}

func TestImportStopsAfterMidRunCancellation(t *testing.T) {
	f := newSyncFixture(t)

	items := &cancellingItemService{
		Service: itemservice.New(itemservice.Params{
			DB:            f.db,
			Log:           zap.NewNop(),
			GenID:         f.node,
			Clock:         f.clock,
			Repo:          itemrepo.Provide(),
			PriceListRepo: pricelistrepo.Provide(),
		}),
		db: f.db,
	}
	svc := New(Params{
		DB:            f.db,
		Log:           zap.NewNop(),
		GenID:         f.node,
		Clock:         f.clock,
		Config:        config.Config{SyncBatchSize: 2},
		Repo:          repository.Provide(),
		PriceListRepo: pricelistrepo.Provide(),
		ItemRepo:      itemrepo.Provide(),
		Items:         items,
	})

	job, err := svc.Import(f.ctx, syncdomain.ImportRequest{
		ListCode: f.uniqueCode("ERP"),
		FullSync: true,
		Items: []itemdomain.ItemInput{
			importItem("C-1", "10.00"),
			importItem("C-2", "20.00"),
			importItem("C-3", "30.00"),
			importItem("C-4", "40.00"),
			importItem("C-5", "50.00"),
		},
	})
	require.NoError(t, err)

	// Only the first batch made it in before the status re-read saw the
	// cancellation.
	assert.Equal(t, 1, items.calls)
	assert.Equal(t, syncdomain.JobCancelled, job.Status)
	assert.Equal(t, 2, job.ProcessedItems)
	assert.Nil(t, job.Summary)
	assert.Nil(t, job.CompletedAt)

	stored, err := svc.GetJob(f.ctx, job.ID.String())
	require.NoError(t, err)
	assert.Equal(t, syncdomain.JobCancelled, stored.Status)
	assert.Equal(t, 2, stored.ProcessedItems)
}
