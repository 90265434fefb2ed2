package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	itemdomain "github.com/smallbiznis/pricebook/internal/pricelistitem/domain"
)

// PriceSource tags where a resolved price came from.
type PriceSource string

var (
	SourceOverride     PriceSource = "OVERRIDE"
	SourceCustomerList PriceSource = "CUSTOMER_LIST"
	SourceDefaultList  PriceSource = "DEFAULT_LIST"
)

// ResolutionStep is one entry in the ordered trace of candidate price
// sources considered during resolution.
type ResolutionStep struct {
	Source      PriceSource      `json:"source"`
	PriceListID *snowflake.ID    `json:"price_list_id,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Selected    bool             `json:"selected"`
	Reason      string           `json:"reason"`
}

// PriceResult is a fully annotated resolved price.
type PriceResult struct {
	SKU              string                    `json:"sku"`
	Quantity         float64                   `json:"quantity"`
	UnitPrice        decimal.Decimal           `json:"unit_price"`
	Currency         string                    `json:"currency"`
	OriginalCurrency *string                   `json:"original_currency,omitempty"`
	BasePrice        decimal.Decimal           `json:"base_price"`
	ListPrice        decimal.Decimal           `json:"list_price"`
	DiscountAmount   decimal.Decimal           `json:"discount_amount"`
	DiscountPercent  decimal.Decimal           `json:"discount_percent"`
	Margin           *decimal.Decimal          `json:"margin,omitempty"`
	IsAtMinPrice     bool                      `json:"is_at_min_price"`
	IsAtMaxPrice     bool                      `json:"is_at_max_price"`
	PriceListID      snowflake.ID              `json:"price_list_id"`
	PriceListItemID  snowflake.ID              `json:"price_list_item_id"`
	Source           PriceSource               `json:"source"`
	AppliedBreak     *itemdomain.QuantityBreak `json:"applied_break,omitempty"`
	ResolvedAt       time.Time                 `json:"resolved_at"`
	ResolutionPath   []ResolutionStep          `json:"resolution_path"`
}

type ResolveRequest struct {
	SKU            string     `json:"sku"`
	Quantity       float64    `json:"quantity"`
	CustomerID     *string    `json:"customer_id"`
	OrganizationID *string    `json:"organization_id"`
	ContractID     *string    `json:"contract_id"`
	Currency       *string    `json:"currency"`
	AsOf           *time.Time `json:"as_of"`
}

type ResolveManyRequest struct {
	SKUs           []string   `json:"skus"`
	Quantity       float64    `json:"quantity"`
	CustomerID     *string    `json:"customer_id"`
	OrganizationID *string    `json:"organization_id"`
	ContractID     *string    `json:"contract_id"`
	Currency       *string    `json:"currency"`
	AsOf           *time.Time `json:"as_of"`
}
