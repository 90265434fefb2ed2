package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/pricebook/internal/clock"
	"github.com/smallbiznis/pricebook/internal/config"
	obsmetrics "github.com/smallbiznis/pricebook/internal/observability/metrics"
	pricelistdomain "github.com/smallbiznis/pricebook/internal/pricelist/domain"
	itemdomain "github.com/smallbiznis/pricebook/internal/pricelistitem/domain"
	syncdomain "github.com/smallbiznis/pricebook/internal/sync/domain"
	"github.com/smallbiznis/pricebook/internal/tenantctx"
	"github.com/smallbiznis/pricebook/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultSyncBatchSize = 100
	defaultJobPageSize   = 10
	maxJobPageSize       = 250
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Config        config.Config
	Metrics       *obsmetrics.Metrics `optional:"true"`
	Repo          syncdomain.Repository
	PriceListRepo pricelistdomain.Repository
	ItemRepo      itemdomain.Repository
	Items         itemdomain.Service
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	metrics       *obsmetrics.Metrics
	batchSize     int
	repo          syncdomain.Repository
	priceListRepo pricelistdomain.Repository
	itemRepo      itemdomain.Repository
	items         itemdomain.Service
}

func New(p Params) syncdomain.Service {
	batchSize := p.Config.SyncBatchSize
	if batchSize <= 0 {
		batchSize = defaultSyncBatchSize
	}
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("sync.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		metrics:       p.Metrics,
		batchSize:     batchSize,
		repo:          p.Repo,
		priceListRepo: p.PriceListRepo,
		itemRepo:      p.ItemRepo,
		items:         p.Items,
	}
}

func (s *Service) Import(ctx context.Context, req syncdomain.ImportRequest) (*syncdomain.PriceListSyncJob, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return nil, syncdomain.ErrInvalidTenant
	}

	code := strings.TrimSpace(req.ListCode)
	if code == "" {
		return nil, syncdomain.ErrInvalidPayload
	}

	list, err := s.resolveOrCreateList(ctx, tenantID, code, req)
	if err != nil {
		return nil, err
	}

	preCount, err := s.itemRepo.Count(ctx, s.db, list.ID)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.itemRepo.SnapshotPrices(ctx, s.db, list.ID)
	if err != nil {
		return nil, err
	}

	jobType := syncdomain.JobDeltaSync
	if req.FullSync {
		jobType = syncdomain.JobFullSync
	}

	started := s.clock.Now()
	job := &syncdomain.PriceListSyncJob{
		ID:          s.genID.Generate(),
		TenantID:    tenantID,
		PriceListID: list.ID,
		JobType:     jobType,
		Status:      syncdomain.JobRunning,
		TotalItems:  len(req.Items),
		DeltaToken:  req.DeltaToken,
		ConnectorID: req.ConnectorID,
		StartedAt:   &started,
	}
	if err := s.repo.Insert(ctx, s.db, job); err != nil {
		return nil, err
	}

	s.log.Info("import started",
		zap.String("job_id", job.ID.String()),
		zap.String("price_list", list.Code),
		zap.String("job_type", string(jobType)),
		zap.Int("total_items", len(req.Items)),
	)

	tracker := &changeTracker{}
	syncErrors := make([]syncdomain.SyncError, 0)
	cancelled := false

	for start := 0; start < len(req.Items); start += s.batchSize {
		// Cancellation is cooperative: the status flag lives in the store
		// and is re-read before every batch.
		current, err := s.repo.FindByID(ctx, s.db, tenantID, job.ID)
		if err != nil {
			return nil, err
		}
		if current != nil && current.Status == syncdomain.JobCancelled {
			job = current
			cancelled = true
			break
		}

		end := start + s.batchSize
		if end > len(req.Items) {
			end = len(req.Items)
		}
		batch := req.Items[start:end]

		result, err := s.items.BulkUpsert(ctx, list.ID.String(), batch)
		if err != nil {
			// Store-level fault: the whole batch is lost but the job
			// carries on with the next one.
			s.log.Warn("sync batch failed", zap.String("job_id", job.ID.String()), zap.Error(err))
			for i := range batch {
				syncErrors = append(syncErrors, syncdomain.SyncError{SKU: batch[i].SKU, Error: err.Error()})
			}
			job.ProcessedItems += len(batch)
			job.ErrorItems += len(batch)
		} else {
			failed := make(map[string]struct{}, len(result.Errors))
			for _, itemErr := range result.Errors {
				failed[itemErr.SKU] = struct{}{}
				syncErrors = append(syncErrors, syncdomain.SyncError{SKU: itemErr.SKU, Error: itemErr.Error})
			}
			for i := range batch {
				if _, bad := failed[batch[i].SKU]; bad {
					continue
				}
				if oldPrice, existed := snapshot[batch[i].SKU]; existed {
					tracker.record(batch[i].SKU, oldPrice, batch[i].ListPrice)
				}
			}
			job.ProcessedItems += len(batch)
			job.SuccessItems += result.Created + result.Updated
			job.ErrorItems += len(result.Errors)
		}

		job.Errors = datatypes.NewJSONSlice(syncErrors)
		if err := s.repo.UpdateProgress(ctx, s.db, job); err != nil {
			return nil, err
		}
	}

	if cancelled {
		s.metrics.IncSyncJob(string(jobType), string(job.Status))
		s.log.Info("import cancelled mid-run", zap.String("job_id", job.ID.String()))
		return job, nil
	}

	job.SkippedItems = tracker.unchanged
	summary := tracker.summary(preCount, job.SuccessItems, 0)
	payload := datatypes.NewJSONType(summary)
	job.Summary = &payload

	if job.SuccessItems == 0 && job.ErrorItems > 0 {
		job.Status = syncdomain.JobFailed
	} else {
		job.Status = syncdomain.JobCompleted
	}
	completed := s.clock.Now()
	job.CompletedAt = &completed
	if err := s.repo.Update(ctx, s.db, job); err != nil {
		return nil, err
	}

	syncStatus := string(job.Status)
	list.SyncStatus = &syncStatus
	list.LastSyncAt = &completed
	if err := s.priceListRepo.Update(ctx, s.db, list); err != nil {
		return nil, err
	}

	s.metrics.IncSyncJob(string(jobType), string(job.Status))
	s.metrics.AddSyncItems("success", job.SuccessItems)
	s.metrics.AddSyncItems("error", job.ErrorItems)
	s.metrics.ObserveSyncDuration(string(jobType), completed.Sub(started))

	s.log.Info("import finished",
		zap.String("job_id", job.ID.String()),
		zap.String("status", string(job.Status)),
		zap.Int("success", job.SuccessItems),
		zap.Int("errors", job.ErrorItems),
	)
	return job, nil
}

func (s *Service) GetJob(ctx context.Context, jobID string) (*syncdomain.PriceListSyncJob, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return nil, syncdomain.ErrInvalidTenant
	}

	id, err := snowflake.ParseString(strings.TrimSpace(jobID))
	if err != nil {
		return nil, syncdomain.ErrInvalidID
	}

	job, err := s.repo.FindByID(ctx, s.db, tenantID, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, syncdomain.ErrJobNotFound
	}
	return job, nil
}

func (s *Service) ListJobs(ctx context.Context, priceListID string, page pagination.Pagination) ([]syncdomain.PriceListSyncJob, *pagination.PageInfo, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return nil, nil, syncdomain.ErrInvalidTenant
	}

	listID, err := snowflake.ParseString(strings.TrimSpace(priceListID))
	if err != nil {
		return nil, nil, syncdomain.ErrInvalidID
	}

	size := page.PageSize
	if size <= 0 {
		size = defaultJobPageSize
	}
	if size > maxJobPageSize {
		size = maxJobPageSize
	}

	var cursorID snowflake.ID
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, nil, syncdomain.ErrInvalidPayload
		}
		cursorID, err = snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, nil, syncdomain.ErrInvalidPayload
		}
	}

	// Fetch one extra row to learn whether another page exists.
	jobs, err := s.repo.ListByPriceList(ctx, s.db, tenantID, listID, cursorID, size+1)
	if err != nil {
		return nil, nil, err
	}

	items, info := pagination.BuildCursorPageInfo(jobs, size, func(j syncdomain.PriceListSyncJob) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: j.ID.String()})
		return token
	})
	return items, info, nil
}

func (s *Service) CancelJob(ctx context.Context, jobID string) error {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return syncdomain.ErrInvalidTenant
	}

	id, err := snowflake.ParseString(strings.TrimSpace(jobID))
	if err != nil {
		return syncdomain.ErrInvalidID
	}

	job, err := s.repo.FindByID(ctx, s.db, tenantID, id)
	if err != nil {
		return err
	}
	if job == nil {
		return syncdomain.ErrJobNotFound
	}
	if job.Status.IsTerminal() {
		return syncdomain.ErrInvalidState
	}

	now := s.clock.Now()
	job.Status = syncdomain.JobCancelled
	job.CompletedAt = &now
	if err := s.repo.Update(ctx, s.db, job); err != nil {
		return err
	}

	s.metrics.IncSyncJob(string(job.JobType), string(job.Status))
	s.log.Info("sync job cancelled", zap.String("job_id", job.ID.String()))
	return nil
}

func (s *Service) LastDeltaToken(ctx context.Context, priceListID string) (string, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return "", syncdomain.ErrInvalidTenant
	}

	listID, err := snowflake.ParseString(strings.TrimSpace(priceListID))
	if err != nil {
		return "", syncdomain.ErrInvalidID
	}

	job, err := s.repo.FindLastCompletedDelta(ctx, s.db, tenantID, listID)
	if err != nil {
		return "", err
	}
	if job == nil || job.DeltaToken == nil {
		return "", nil
	}
	return *job.DeltaToken, nil
}

func (s *Service) ProcessDeltaUpdates(ctx context.Context, req syncdomain.DeltaRequest) (*syncdomain.DeltaResult, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return nil, syncdomain.ErrInvalidTenant
	}

	listID, err := snowflake.ParseString(strings.TrimSpace(req.PriceListID))
	if err != nil {
		return nil, syncdomain.ErrInvalidID
	}
	list, err := s.priceListRepo.FindByID(ctx, s.db, tenantID, listID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, syncdomain.ErrPriceListNotFound
	}

	started := s.clock.Now()
	job := &syncdomain.PriceListSyncJob{
		ID:          s.genID.Generate(),
		TenantID:    tenantID,
		PriceListID: list.ID,
		JobType:     syncdomain.JobDeltaSync,
		Status:      syncdomain.JobRunning,
		TotalItems:  len(req.Updates),
		DeltaToken:  req.DeltaToken,
		StartedAt:   &started,
	}
	if err := s.repo.Insert(ctx, s.db, job); err != nil {
		return nil, err
	}

	upserts := make([]itemdomain.ItemInput, 0, len(req.Updates))
	deletes := make([]string, 0)
	itemErrors := make([]itemdomain.ItemError, 0)
	for _, update := range req.Updates {
		sku := strings.TrimSpace(update.SKU)
		if sku == "" {
			itemErrors = append(itemErrors, itemdomain.ItemError{SKU: update.SKU, Error: itemdomain.ErrInvalidSKU.Error()})
			continue
		}
		switch update.Op {
		case syncdomain.DeltaDelete:
			deletes = append(deletes, sku)
		case syncdomain.DeltaUpsert:
			if update.Item == nil {
				itemErrors = append(itemErrors, itemdomain.ItemError{SKU: sku, Error: syncdomain.ErrInvalidPayload.Error()})
				continue
			}
			input := *update.Item
			input.SKU = sku
			upserts = append(upserts, input)
		default:
			itemErrors = append(itemErrors, itemdomain.ItemError{SKU: sku, Error: syncdomain.ErrInvalidPayload.Error()})
		}
	}

	processed := 0
	if len(upserts) > 0 {
		result, err := s.items.BulkUpsert(ctx, list.ID.String(), upserts)
		if err != nil {
			for i := range upserts {
				itemErrors = append(itemErrors, itemdomain.ItemError{SKU: upserts[i].SKU, Error: err.Error()})
			}
		} else {
			processed += result.Created + result.Updated
			itemErrors = append(itemErrors, result.Errors...)
		}
	}

	deleted := 0
	for _, sku := range deletes {
		if err := s.deactivateItem(ctx, list.ID, sku); err != nil {
			itemErrors = append(itemErrors, itemdomain.ItemError{SKU: sku, Error: err.Error()})
			continue
		}
		deleted++
	}
	processed += deleted

	newToken := s.mintDeltaToken()
	job.ProcessedItems = len(req.Updates)
	job.SuccessItems = processed
	job.ErrorItems = len(itemErrors)
	job.DeltaToken = &newToken

	syncErrors := make([]syncdomain.SyncError, 0, len(itemErrors))
	for _, itemErr := range itemErrors {
		syncErrors = append(syncErrors, syncdomain.SyncError{SKU: itemErr.SKU, Error: itemErr.Error})
	}
	job.Errors = datatypes.NewJSONSlice(syncErrors)

	summary := syncdomain.SyncSummary{ItemsDeleted: deleted}
	payload := datatypes.NewJSONType(summary)
	job.Summary = &payload

	if job.SuccessItems == 0 && job.ErrorItems > 0 {
		job.Status = syncdomain.JobFailed
	} else {
		job.Status = syncdomain.JobCompleted
	}
	completed := s.clock.Now()
	job.CompletedAt = &completed
	if err := s.repo.Update(ctx, s.db, job); err != nil {
		return nil, err
	}

	syncStatus := string(job.Status)
	list.SyncStatus = &syncStatus
	list.LastSyncAt = &completed
	if err := s.priceListRepo.Update(ctx, s.db, list); err != nil {
		return nil, err
	}

	s.metrics.IncSyncJob(string(syncdomain.JobDeltaSync), string(job.Status))
	s.metrics.AddSyncItems("success", job.SuccessItems)
	s.metrics.AddSyncItems("error", job.ErrorItems)
	s.metrics.ObserveSyncDuration(string(syncdomain.JobDeltaSync), completed.Sub(started))

	return &syncdomain.DeltaResult{
		JobID:         job.ID,
		Processed:     processed,
		Errors:        itemErrors,
		NewDeltaToken: newToken,
	}, nil
}

func (s *Service) ScheduleBatchSync(ctx context.Context) ([]snowflake.ID, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return nil, syncdomain.ErrInvalidTenant
	}

	lists, err := s.priceListRepo.ListActiveExternallyLinked(ctx, s.db, tenantID)
	if err != nil {
		return nil, err
	}

	jobIDs := make([]snowflake.ID, 0, len(lists))
	for i := range lists {
		job := &syncdomain.PriceListSyncJob{
			ID:          s.genID.Generate(),
			TenantID:    tenantID,
			PriceListID: lists[i].ID,
			JobType:     syncdomain.JobDeltaSync,
			Status:      syncdomain.JobPending,
		}
		if err := s.repo.Insert(ctx, s.db, job); err != nil {
			return nil, err
		}
		s.metrics.IncSyncJob(string(syncdomain.JobDeltaSync), string(syncdomain.JobPending))
		jobIDs = append(jobIDs, job.ID)
	}

	s.log.Info("batch sync scheduled", zap.Int("jobs", len(jobIDs)))
	return jobIDs, nil
}

func (s *Service) resolveOrCreateList(ctx context.Context, tenantID snowflake.ID, code string, req syncdomain.ImportRequest) (*pricelistdomain.PriceList, error) {
	list, err := s.priceListRepo.FindByCode(ctx, s.db, tenantID, code)
	if err != nil {
		return nil, err
	}
	if list != nil {
		return list, nil
	}

	name := code
	if req.ListName != nil && strings.TrimSpace(*req.ListName) != "" {
		name = strings.TrimSpace(*req.ListName)
	}
	currency := "USD"
	if req.Currency != nil && strings.TrimSpace(*req.Currency) != "" {
		currency = strings.ToUpper(strings.TrimSpace(*req.Currency))
	}

	externalSystem := "erp"
	list = &pricelistdomain.PriceList{
		ID:                s.genID.Generate(),
		TenantID:          tenantID,
		Code:              code,
		Name:              name,
		Type:              pricelistdomain.TypeStandard,
		Status:            pricelistdomain.StatusActive,
		Currency:          currency,
		EffectiveFrom:     s.clock.Now(),
		RoundingRule:      pricelistdomain.RoundNearest,
		RoundingPrecision: 2,
		ExternalID:        &code,
		ExternalSystem:    &externalSystem,
		CreatedAt:         s.clock.Now(),
		UpdatedAt:         s.clock.Now(),
	}
	if err := s.priceListRepo.Insert(ctx, s.db, list); err != nil {
		return nil, err
	}

	s.log.Info("price list auto-created on first import",
		zap.String("code", code),
		zap.String("list_id", list.ID.String()),
	)
	return list, nil
}

func (s *Service) deactivateItem(ctx context.Context, priceListID snowflake.ID, sku string) error {
	item, err := s.itemRepo.FindBySKU(ctx, s.db, priceListID, sku)
	if err != nil {
		return err
	}
	if item == nil {
		return itemdomain.ErrNotFound
	}

	now := s.clock.Now()
	item.IsActive = false
	item.UpdatedAt = now
	item.LastSyncAt = &now
	return s.itemRepo.Update(ctx, s.db, item)
}

// mintDeltaToken produces the next opaque continuation cursor. ULIDs sort
// lexicographically by creation time, which is all the ordering callers
// may rely on.
func (s *Service) mintDeltaToken() string {
	now := s.clock.Now()
	return ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}
