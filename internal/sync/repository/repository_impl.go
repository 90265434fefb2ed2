package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	syncdomain "github.com/smallbiznis/pricebook/internal/sync/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() syncdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, job *syncdomain.PriceListSyncJob) error {
	return db.WithContext(ctx).Create(job).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, job *syncdomain.PriceListSyncJob) error {
	return db.WithContext(ctx).Save(job).Error
}

// UpdateProgress checkpoints the running counters without touching status,
// so a concurrent cancellation is never written back over.
func (r *repo) UpdateProgress(ctx context.Context, db *gorm.DB, job *syncdomain.PriceListSyncJob) error {
	return db.WithContext(ctx).Model(&syncdomain.PriceListSyncJob{}).
		Where("id = ?", job.ID).
		Updates(map[string]any{
			"processed_items": job.ProcessedItems,
			"success_items":   job.SuccessItems,
			"error_items":     job.ErrorItems,
			"errors":          job.Errors,
		}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*syncdomain.PriceListSyncJob, error) {
	var job syncdomain.PriceListSyncJob
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *repo) ListByPriceList(ctx context.Context, db *gorm.DB, tenantID, priceListID, cursorID snowflake.ID, limit int) ([]syncdomain.PriceListSyncJob, error) {
	var jobs []syncdomain.PriceListSyncJob
	// Snowflake IDs are time-ordered, so id DESC is newest first and the
	// cursor is a plain id comparison.
	stmt := db.WithContext(ctx).
		Where("tenant_id = ? AND price_list_id = ?", tenantID, priceListID).
		Order("id DESC")
	if cursorID != 0 {
		stmt = stmt.Where("id < ?", cursorID)
	}
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if err := stmt.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *repo) FindLastCompletedDelta(ctx context.Context, db *gorm.DB, tenantID, priceListID snowflake.ID) (*syncdomain.PriceListSyncJob, error) {
	var job syncdomain.PriceListSyncJob
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND price_list_id = ?", tenantID, priceListID).
		Where("job_type = ? AND status = ?", syncdomain.JobDeltaSync, syncdomain.JobCompleted).
		Order("created_at DESC, id DESC").
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}
