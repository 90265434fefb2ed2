package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type JobType string

var (
	JobFullSync  JobType = "FULL_SYNC"
	JobDeltaSync JobType = "DELTA_SYNC"
)

type JobStatus string

var (
	JobPending   JobStatus = "PENDING"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
	JobCancelled JobStatus = "CANCELLED"
)

// IsTerminal reports whether no further transitions are allowed.
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// SyncError records a single item's failure during an import. Stored as
// JSON on the job, never raised as a Go error.
type SyncError struct {
	SKU   string `json:"sku"`
	Error string `json:"error"`
}

// PriceChange captures one SKU's price movement across a sync run.
type PriceChange struct {
	SKU           string          `json:"sku"`
	OldPrice      decimal.Decimal `json:"old_price"`
	NewPrice      decimal.Decimal `json:"new_price"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}

// SyncSummary aggregates the outcome of a finished import. Created and
// updated counts are estimates derived from the pre-sync item count,
// not an exact ledger.
type SyncSummary struct {
	ItemsCreated     int              `json:"items_created"`
	ItemsUpdated     int              `json:"items_updated"`
	ItemsUnchanged   int              `json:"items_unchanged"`
	ItemsDeleted     int              `json:"items_deleted"`
	PricesIncreased  int              `json:"prices_increased"`
	PricesDecreased  int              `json:"prices_decreased"`
	PricesUnchanged  int              `json:"prices_unchanged"`
	AvgChangePercent decimal.Decimal  `json:"avg_change_percent"`
	LargestIncrease  *PriceChange     `json:"largest_increase,omitempty"`
	LargestDecrease  *PriceChange     `json:"largest_decrease,omitempty"`
}

// PriceListSyncJob is one unit of synchronization work against a list.
type PriceListSyncJob struct {
	ID             snowflake.ID                       `json:"id" gorm:"primaryKey"`
	TenantID       snowflake.ID                       `json:"tenant_id" gorm:"column:tenant_id;not null;index"`
	PriceListID    snowflake.ID                       `json:"price_list_id" gorm:"column:price_list_id;not null;index"`
	JobType        JobType                            `json:"job_type" gorm:"type:text;not null"`
	Status         JobStatus                          `json:"status" gorm:"type:text;not null;index"`
	TotalItems     int                                `json:"total_items" gorm:"not null;default:0"`
	ProcessedItems int                                `json:"processed_items" gorm:"not null;default:0"`
	SuccessItems   int                                `json:"success_items" gorm:"not null;default:0"`
	ErrorItems     int                                `json:"error_items" gorm:"not null;default:0"`
	SkippedItems   int                                `json:"skipped_items" gorm:"not null;default:0"`
	DeltaToken     *string                            `json:"delta_token,omitempty" gorm:"type:text"`
	ConnectorID    *string                            `json:"connector_id,omitempty" gorm:"type:text"`
	Errors         datatypes.JSONSlice[SyncError]     `json:"errors,omitempty" gorm:"type:jsonb"`
	Summary        *datatypes.JSONType[SyncSummary]   `json:"summary,omitempty" gorm:"type:jsonb"`
	StartedAt      *time.Time                         `json:"started_at,omitempty" gorm:""`
	CompletedAt    *time.Time                         `json:"completed_at,omitempty" gorm:""`
	CreatedAt      time.Time                          `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time                          `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PriceListSyncJob) TableName() string { return "price_list_sync_jobs" }
