package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*PriceList, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*PriceList, error)
	Archive(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*PriceList, error)
	GetByCode(ctx context.Context, code string) (*PriceList, error)
	List(ctx context.Context) ([]PriceList, error)
}

type CreateRequest struct {
	Code               string           `json:"code"`
	Name               string           `json:"name"`
	Type               ListType         `json:"type"`
	Status             *ListStatus      `json:"status"`
	Currency           string           `json:"currency"`
	Priority           int32            `json:"priority"`
	EffectiveFrom      *time.Time       `json:"effective_from"`
	EffectiveTo        *time.Time       `json:"effective_to"`
	BasePriceListID    *string          `json:"base_price_list_id"`
	PriceModifier      *decimal.Decimal `json:"price_modifier"`
	RoundingRule       *RoundingRule    `json:"rounding_rule"`
	RoundingPrecision  *int32           `json:"rounding_precision"`
	IsDefault          *bool            `json:"is_default"`
	IsCustomerSpecific *bool            `json:"is_customer_specific"`
	ExternalID         *string          `json:"external_id"`
	ExternalSystem     *string          `json:"external_system"`
	Metadata           map[string]any   `json:"metadata"`
}

type UpdateRequest struct {
	Name              *string          `json:"name"`
	Status            *ListStatus      `json:"status"`
	Priority          *int32           `json:"priority"`
	EffectiveFrom     *time.Time       `json:"effective_from"`
	EffectiveTo       *time.Time       `json:"effective_to"`
	PriceModifier     *decimal.Decimal `json:"price_modifier"`
	RoundingRule      *RoundingRule    `json:"rounding_rule"`
	RoundingPrecision *int32           `json:"rounding_precision"`
	IsDefault         *bool            `json:"is_default"`
}

var (
	ErrInvalidTenant       = errors.New("invalid_tenant")
	ErrInvalidCode         = errors.New("invalid_code")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidType         = errors.New("invalid_type")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidCurrency     = errors.New("invalid_currency")
	ErrInvalidWindow       = errors.New("invalid_effective_window")
	ErrInvalidRoundingRule = errors.New("invalid_rounding_rule")
	ErrInvalidPrecision    = errors.New("invalid_rounding_precision")
	ErrInvalidID           = errors.New("invalid_id")
	ErrDuplicateCode       = errors.New("duplicate_code")
	ErrNotFound            = errors.New("not_found")
)

// ParseID parses a snowflake identifier from its string form.
func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
