package service

import (
	"github.com/shopspring/decimal"
	syncdomain "github.com/smallbiznis/pricebook/internal/sync/domain"
)

var hundred = decimal.NewFromInt(100)

// changeTracker accumulates per-SKU price movements across batches so
// the final summary can be computed without a second pass over the data.
type changeTracker struct {
	increased       int
	decreased       int
	unchanged       int
	totalPercent    decimal.Decimal
	changedCount    int
	largestIncrease *syncdomain.PriceChange
	largestDecrease *syncdomain.PriceChange
}

func (t *changeTracker) record(sku string, oldPrice, newPrice decimal.Decimal) {
	cmp := newPrice.Cmp(oldPrice)
	if cmp == 0 {
		t.unchanged++
		return
	}

	percent := decimal.Zero
	if oldPrice.Sign() > 0 {
		percent = newPrice.Sub(oldPrice).Div(oldPrice).Mul(hundred).Round(4)
	}
	change := &syncdomain.PriceChange{
		SKU:           sku,
		OldPrice:      oldPrice,
		NewPrice:      newPrice,
		ChangePercent: percent,
	}

	t.changedCount++
	t.totalPercent = t.totalPercent.Add(percent)
	if cmp > 0 {
		t.increased++
		if t.largestIncrease == nil || percent.GreaterThan(t.largestIncrease.ChangePercent) {
			t.largestIncrease = change
		}
	} else {
		t.decreased++
		if t.largestDecrease == nil || percent.LessThan(t.largestDecrease.ChangePercent) {
			t.largestDecrease = change
		}
	}
}

// summary rolls the tracker up. Created/updated are estimates against the
// pre-sync item count, not an exact ledger.
func (t *changeTracker) summary(preCount int64, success, deleted int) syncdomain.SyncSummary {
	created := success - int(preCount)
	if created < 0 {
		created = 0
	}

	avg := decimal.Zero
	if t.changedCount > 0 {
		avg = t.totalPercent.DivRound(decimal.NewFromInt(int64(t.changedCount)), 2)
	}

	return syncdomain.SyncSummary{
		ItemsCreated:     created,
		ItemsUpdated:     success - created,
		ItemsUnchanged:   t.unchanged,
		ItemsDeleted:     deleted,
		PricesIncreased:  t.increased,
		PricesDecreased:  t.decreased,
		PricesUnchanged:  t.unchanged,
		AvgChangePercent: avg,
		LargestIncrease:  t.largestIncrease,
		LargestDecrease:  t.largestDecrease,
	}
}
