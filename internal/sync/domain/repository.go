package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, job *PriceListSyncJob) error
	Update(ctx context.Context, db *gorm.DB, job *PriceListSyncJob) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*PriceListSyncJob, error)
	// UpdateProgress checkpoints counters and errors only; status stays
	// untouched so it cannot race a cancellation.
	UpdateProgress(ctx context.Context, db *gorm.DB, job *PriceListSyncJob) error
	// ListByPriceList returns jobs newest first. A non-zero cursorID
	// restricts the page to jobs older than that ID; limit caps the page.
	ListByPriceList(ctx context.Context, db *gorm.DB, tenantID, priceListID, cursorID snowflake.ID, limit int) ([]PriceListSyncJob, error)
	// FindLastCompletedDelta returns the most recent COMPLETED DELTA_SYNC
	// job for the list. Failed and cancelled jobs never surface here.
	FindLastCompletedDelta(ctx context.Context, db *gorm.DB, tenantID, priceListID snowflake.ID) (*PriceListSyncJob, error)
}
