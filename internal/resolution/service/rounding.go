package service

import (
	"github.com/shopspring/decimal"
	pricelistdomain "github.com/smallbiznis/pricebook/internal/pricelist/domain"
)

var (
	nickel     = decimal.New(5, -2)  // 0.05
	nineCents  = decimal.New(9, -2)  // 0.09
	ninetyNine = decimal.New(99, -2) // 0.99
)

// Round applies a price list's rounding rule at the given precision. Pure;
// non-positive prices pass through unchanged, rejecting them is the caller's
// job.
func Round(price decimal.Decimal, rule pricelistdomain.RoundingRule, precision int32) decimal.Decimal {
	if price.Sign() <= 0 {
		return price
	}

	switch rule {
	case pricelistdomain.RoundUp:
		return price.RoundCeil(precision)
	case pricelistdomain.RoundDown:
		return price.RoundFloor(precision)
	case pricelistdomain.RoundNearest:
		return price.RoundBank(precision)
	case pricelistdomain.RoundNearest05:
		// Nearest 0.05 regardless of precision.
		return price.Div(nickel).Round(0).Mul(nickel)
	case pricelistdomain.RoundNearest09:
		return price.RoundFloor(0).Add(nineCents)
	case pricelistdomain.RoundNearest99:
		return price.RoundFloor(0).Add(ninetyNine)
	default:
		return price
	}
}
