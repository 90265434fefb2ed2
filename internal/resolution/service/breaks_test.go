package service

import (
	"testing"

	"github.com/shopspring/decimal"
	itemdomain "github.com/smallbiznis/pricebook/internal/pricelistitem/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestResolveQuantityBreakHighestTierWins(t *testing.T) {
	listPrice := dec("100")
	breaks := []itemdomain.QuantityBreak{
		{MinQuantity: 1, DiscountPercent: decPtr("0")},
		{MinQuantity: 10, DiscountPercent: decPtr("10")},
		{MinQuantity: 50, DiscountPercent: decPtr("20")},
	}

	cases := []struct {
		qty     float64
		want    string
		wantMin float64
	}{
		{1, "100", 1},
		{9, "100", 1},
		{10, "90", 10},
		{49, "90", 10},
		{50, "80", 50},
		{500, "80", 50},
	}

	for _, tc := range cases {
		price, applied := ResolveQuantityBreak(breaks, tc.qty, listPrice)
		assert.True(t, price.Equal(dec(tc.want)), "qty %v: got %s, want %s", tc.qty, price, tc.want)
		require.NotNil(t, applied, "qty %v", tc.qty)
		assert.Equal(t, tc.wantMin, applied.MinQuantity, "qty %v", tc.qty)
	}
}

func TestResolveQuantityBreakFixedPriceVerbatim(t *testing.T) {
	breaks := []itemdomain.QuantityBreak{
		{MinQuantity: 10, Price: decPtr("7.777")},
	}

	price, applied := ResolveQuantityBreak(breaks, 25, dec("10"))
	require.NotNil(t, applied)
	assert.True(t, price.Equal(dec("7.777")))
}

func TestResolveQuantityBreakRespectsMaxQuantity(t *testing.T) {
	maxQty := 20.0
	breaks := []itemdomain.QuantityBreak{
		{MinQuantity: 10, MaxQuantity: &maxQty, DiscountPercent: decPtr("15")},
	}

	price, applied := ResolveQuantityBreak(breaks, 21, dec("100"))
	assert.Nil(t, applied)
	assert.True(t, price.Equal(dec("100")))

	price, applied = ResolveQuantityBreak(breaks, 20, dec("100"))
	require.NotNil(t, applied)
	assert.True(t, price.Equal(dec("85")))
}

func TestResolveQuantityBreakNoneQualifies(t *testing.T) {
	breaks := []itemdomain.QuantityBreak{
		{MinQuantity: 100, DiscountPercent: decPtr("25")},
	}

	price, applied := ResolveQuantityBreak(breaks, 5, dec("42"))
	assert.Nil(t, applied)
	assert.True(t, price.Equal(dec("42")))
}

func TestResolveQuantityBreakEmpty(t *testing.T) {
	price, applied := ResolveQuantityBreak(nil, 5, dec("42"))
	assert.Nil(t, applied)
	assert.True(t, price.Equal(dec("42")))
}

func TestResolveQuantityBreakMonotonicForIncreasingQuantity(t *testing.T) {
	listPrice := dec("100")
	breaks := []itemdomain.QuantityBreak{
		{MinQuantity: 1, DiscountPercent: decPtr("0")},
		{MinQuantity: 10, DiscountPercent: decPtr("10")},
		{MinQuantity: 50, DiscountPercent: decPtr("20")},
		{MinQuantity: 100, DiscountPercent: decPtr("30")},
	}

	prev := dec("101")
	for _, qty := range []float64{1, 5, 10, 25, 50, 75, 100, 1000} {
		price, _ := ResolveQuantityBreak(breaks, qty, listPrice)
		assert.True(t, price.LessThanOrEqual(prev),
			"qty %v: price %s should not exceed previous %s", qty, price, prev)
		prev = price
	}
}
