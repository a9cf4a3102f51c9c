// Package stock folds receipts and consumptions into the current inventory snapshot.
package stock

import "github.com/mamadbah2/sitestock/internal/domain/models"

// ValuationMode selects how an item's total value is derived.
type ValuationMode string

const (
	// ValuationAccumulate sums receipt values and recomputes stock × last rate
	// only when a consumption touches the item.
	ValuationAccumulate ValuationMode = "accumulate"
	// ValuationLastRate always values an item at current stock × last rate.
	ValuationLastRate ValuationMode = "last_rate"
)

// ParseValuationMode maps a config string onto a mode; unknown values report false.
func ParseValuationMode(value string) (ValuationMode, bool) {
	switch ValuationMode(value) {
	case "", ValuationAccumulate:
		return ValuationAccumulate, true
	case ValuationLastRate:
		return ValuationLastRate, true
	default:
		return "", false
	}
}

// Options tunes AggregateWithOptions.
type Options struct {
	Valuation ValuationMode
}

// Aggregate folds the records in their given order using ValuationAccumulate.
func Aggregate(receipts []models.ReceiptRecord, consumptions []models.ConsumptionRecord) []models.InventoryItem {
	return AggregateWithOptions(receipts, consumptions, Options{Valuation: ValuationAccumulate})
}

// AggregateWithOptions returns one item per item code seen in receipts, in
// first-seen order. Consumptions of codes without a receipt are ignored.
func AggregateWithOptions(receipts []models.ReceiptRecord, consumptions []models.ConsumptionRecord, opts Options) []models.InventoryItem {
	index := make(map[string]int, len(receipts))
	items := make([]models.InventoryItem, 0, len(receipts))

	for _, r := range receipts {
		i, ok := index[r.ItemCode]
		if !ok {
			index[r.ItemCode] = len(items)
			items = append(items, models.InventoryItem{
				ItemCode:          r.ItemCode,
				ItemName:          r.ItemName,
				CurrentStock:      r.QuantityReceived,
				UnitOfMeasurement: r.UnitOfMeasurement,
				LastRatePerUnit:   r.RatePerUnit,
				TotalValue:        r.TotalValue,
				LastUpdated:       r.CreatedAt,
			})
			continue
		}

		item := &items[i]
		item.CurrentStock += r.QuantityReceived
		item.TotalValue += r.TotalValue
		// Last write wins by iteration order, not by timestamp.
		item.LastRatePerUnit = r.RatePerUnit
		item.LastUpdated = r.CreatedAt
	}

	for _, c := range consumptions {
		i, ok := index[c.ItemCode]
		if !ok {
			continue
		}

		item := &items[i]
		item.CurrentStock -= c.QuantityUsed
		item.TotalValue = item.CurrentStock * item.LastRatePerUnit
		if c.CreatedAt.After(item.LastUpdated) {
			item.LastUpdated = c.CreatedAt
		}
	}

	if opts.Valuation == ValuationLastRate {
		for i := range items {
			items[i].TotalValue = items[i].CurrentStock * items[i].LastRatePerUnit
		}
	}

	return items
}
