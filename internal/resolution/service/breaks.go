package service

import (
	"sort"

	"github.com/shopspring/decimal"
	itemdomain "github.com/smallbiznis/pricebook/internal/pricelistitem/domain"
)

var hundred = decimal.NewFromInt(100)

// ResolveQuantityBreak selects the applicable tiered price for the requested
// quantity: the highest qualifying minimum wins. Returns the effective price
// (pre-rounding) and the applied break, nil when no break qualifies.
func ResolveQuantityBreak(breaks []itemdomain.QuantityBreak, quantity float64, listPrice decimal.Decimal) (decimal.Decimal, *itemdomain.QuantityBreak) {
	if len(breaks) == 0 {
		return listPrice, nil
	}

	sorted := make([]itemdomain.QuantityBreak, len(breaks))
	copy(sorted, breaks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinQuantity > sorted[j].MinQuantity
	})

	for i := range sorted {
		qb := sorted[i]
		if !qb.Admits(quantity) {
			continue
		}
		if qb.Price != nil {
			return *qb.Price, &qb
		}
		if qb.DiscountPercent != nil {
			price := listPrice.Mul(hundred.Sub(*qb.DiscountPercent)).Div(hundred)
			return price, &qb
		}
	}

	return listPrice, nil
}
