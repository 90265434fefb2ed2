package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	itemdomain "github.com/smallbiznis/pricebook/internal/pricelistitem/domain"
	"github.com/smallbiznis/pricebook/pkg/db/pagination"
)

type Service interface {
	// Import runs a full or delta ERP import against the list identified by
	// payload code, creating the list on first import. The returned job is
	// already in a terminal state unless it was cancelled mid-run.
	Import(ctx context.Context, req ImportRequest) (*PriceListSyncJob, error)
	GetJob(ctx context.Context, jobID string) (*PriceListSyncJob, error)
	ListJobs(ctx context.Context, priceListID string, page pagination.Pagination) ([]PriceListSyncJob, *pagination.PageInfo, error)
	// CancelJob transitions a PENDING or RUNNING job to CANCELLED. The
	// import loop observes the flip between batches; nothing is interrupted
	// preemptively.
	CancelJob(ctx context.Context, jobID string) error
	// LastDeltaToken returns the continuation token from the most recent
	// COMPLETED delta job for the list, or "" when none exists.
	LastDeltaToken(ctx context.Context, priceListID string) (string, error)
	ProcessDeltaUpdates(ctx context.Context, req DeltaRequest) (*DeltaResult, error)
	// ScheduleBatchSync creates one PENDING delta job per ACTIVE,
	// externally-linked list. Callers poll the returned job ids; no cron
	// runs here.
	ScheduleBatchSync(ctx context.Context) ([]snowflake.ID, error)
}

type ImportRequest struct {
	ListCode    string                 `json:"list_code"`
	ListName    *string                `json:"list_name"`
	Currency    *string                `json:"currency"`
	ConnectorID *string                `json:"connector_id"`
	FullSync    bool                   `json:"full_sync"`
	DeltaToken  *string                `json:"delta_token"`
	Items       []itemdomain.ItemInput `json:"items"`
}

type DeltaOp string

var (
	DeltaUpsert DeltaOp = "UPSERT"
	DeltaDelete DeltaOp = "DELETE"
)

// DeltaUpdate is one SKU-keyed change inside an incremental sync.
// DELETE deactivates the item; it never removes the row.
type DeltaUpdate struct {
	Op   DeltaOp               `json:"op"`
	SKU  string                `json:"sku"`
	Item *itemdomain.ItemInput `json:"item,omitempty"`
}

type DeltaRequest struct {
	PriceListID string        `json:"price_list_id"`
	DeltaToken  *string       `json:"delta_token"`
	Updates     []DeltaUpdate `json:"updates"`
}

type DeltaResult struct {
	JobID         snowflake.ID           `json:"job_id"`
	Processed     int                    `json:"processed"`
	Errors        []itemdomain.ItemError `json:"errors"`
	NewDeltaToken string                 `json:"new_delta_token"`
}

var (
	ErrInvalidTenant     = errors.New("invalid_tenant")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidPayload    = errors.New("invalid_payload")
	ErrJobNotFound       = errors.New("sync_job_not_found")
	ErrPriceListNotFound = errors.New("price_list_not_found")
	ErrInvalidState      = errors.New("invalid_state")
)
