package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*PriceOverride, error)
	Cancel(ctx context.Context, id string) error
	List(ctx context.Context, priceListItemID string) ([]PriceOverride, error)
}

type CreateRequest struct {
	ScopeType       ScopeType       `json:"scope_type"`
	ScopeID         string          `json:"scope_id"`
	PriceListItemID string          `json:"price_list_item_id"`
	OverrideType    OverrideType    `json:"override_type"`
	OverrideValue   decimal.Decimal `json:"override_value"`
	MinQuantity     *float64        `json:"min_quantity"`
	MaxQuantity     *float64        `json:"max_quantity"`
	EffectiveFrom   *time.Time      `json:"effective_from"`
	EffectiveTo     *time.Time      `json:"effective_to"`
}

var (
	ErrInvalidTenant       = errors.New("invalid_tenant")
	ErrInvalidScopeType    = errors.New("invalid_scope_type")
	ErrInvalidScope        = errors.New("invalid_scope")
	ErrInvalidItem         = errors.New("invalid_price_list_item")
	ErrInvalidOverrideType = errors.New("invalid_override_type")
	ErrInvalidValue        = errors.New("invalid_override_value")
	ErrInvalidQuantity     = errors.New("invalid_quantity_bounds")
	ErrInvalidWindow       = errors.New("invalid_effective_window")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidState        = errors.New("invalid_state")
	ErrNotFound            = errors.New("not_found")
)
