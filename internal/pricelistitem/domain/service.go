package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	Add(ctx context.Context, priceListID string, req ItemInput) (*PriceListItem, error)
	Update(ctx context.Context, priceListID, sku string, req ItemInput) (*PriceListItem, error)
	Get(ctx context.Context, priceListID, sku string) (*PriceListItem, error)
	List(ctx context.Context, priceListID string) ([]PriceListItem, error)
	// BulkUpsert is the workhorse behind the admin bulk-load API and the
	// sync orchestrator: idempotent create-or-update in fixed-size batches
	// with per-item error isolation.
	BulkUpsert(ctx context.Context, priceListID string, items []ItemInput) (*BulkUpsertResult, error)
}

type ItemInput struct {
	SKU                string           `json:"sku"`
	MasterProductID    *string          `json:"master_product_id"`
	BasePrice          decimal.Decimal  `json:"base_price"`
	ListPrice          decimal.Decimal  `json:"list_price"`
	MinPrice           *decimal.Decimal `json:"min_price"`
	MaxPrice           *decimal.Decimal `json:"max_price"`
	Cost               *decimal.Decimal `json:"cost"`
	Currency           *string          `json:"currency"`
	QuantityBreaks     []QuantityBreak  `json:"quantity_breaks"`
	MaxDiscountPercent *decimal.Decimal `json:"max_discount_percent"`
	IsDiscountable     *bool            `json:"is_discountable"`
	EffectiveFrom      *time.Time       `json:"effective_from"`
	EffectiveTo        *time.Time       `json:"effective_to"`
	IsActive           *bool            `json:"is_active"`
	UnitOfMeasure      *string          `json:"unit_of_measure"`
	ExternalID         *string          `json:"external_id"`
	ExternalSystem     *string          `json:"external_system"`
}

// ItemError records a single item's failure inside an otherwise-successful
// bulk operation. It is data, not a Go error.
type ItemError struct {
	SKU   string `json:"sku"`
	Error string `json:"error"`
}

type BulkUpsertResult struct {
	Created int         `json:"created"`
	Updated int         `json:"updated"`
	Errors  []ItemError `json:"errors"`
}

var (
	ErrInvalidTenant        = errors.New("invalid_tenant")
	ErrInvalidSKU           = errors.New("invalid_sku")
	ErrInvalidPrice         = errors.New("invalid_price")
	ErrInvalidPriceBounds   = errors.New("invalid_price_bounds")
	ErrInvalidQuantityBreak = errors.New("invalid_quantity_break")
	ErrInvalidWindow        = errors.New("invalid_effective_window")
	ErrInvalidID            = errors.New("invalid_id")
	ErrDuplicateSKU         = errors.New("duplicate_sku")
	ErrPriceListNotFound    = errors.New("price_list_not_found")
	ErrNotFound             = errors.New("not_found")
)
