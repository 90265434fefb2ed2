package domain

import (
	"context"
	"errors"
)

type Service interface {
	// Resolve determines the single authoritative unit price for a SKU.
	Resolve(ctx context.Context, req ResolveRequest) (*PriceResult, error)
	// ResolveMany fans out single-SKU resolution with bounded concurrency.
	// Individual SKU failures surface as nil entries, never as an error.
	ResolveMany(ctx context.Context, req ResolveManyRequest) (map[string]*PriceResult, error)
}

var (
	ErrInvalidTenant   = errors.New("invalid_tenant")
	ErrInvalidSKU      = errors.New("invalid_sku")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrPriceNotFound   = errors.New("price_not_found")
)
