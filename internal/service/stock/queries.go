package stock

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/mamadbah2/sitestock/internal/domain/models"
)

// LowStockThreshold is the exclusive upper bound of the low stock band.
const LowStockThreshold = 10

// Status classifies an item by its current stock.
type Status string

const (
	StatusInStock    Status = "in_stock"
	StatusLowStock   Status = "low_stock"
	StatusOutOfStock Status = "out_of_stock"
)

// Classify maps a stock quantity onto its status.
func Classify(currentStock float64) Status {
	switch {
	case currentStock <= 0:
		return StatusOutOfStock
	case currentStock < LowStockThreshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// LowStock returns items below the threshold, out of stock items included.
func LowStock(items []models.InventoryItem) []models.InventoryItem {
	return filter(items, func(item models.InventoryItem) bool {
		return item.CurrentStock < LowStockThreshold
	})
}

// OutOfStock returns items with no positive stock.
func OutOfStock(items []models.InventoryItem) []models.InventoryItem {
	return filter(items, func(item models.InventoryItem) bool {
		return item.CurrentStock <= 0
	})
}

// TotalValue sums the value of every item.
func TotalValue(items []models.InventoryItem) float64 {
	var total float64
	for _, item := range items {
		total += item.TotalValue
	}
	return total
}

// TopByValue returns the n most valuable items. Ties keep input order and the
// input slice is left untouched.
func TopByValue(items []models.InventoryItem, n int) []models.InventoryItem {
	sorted := make([]models.InventoryItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalValue > sorted[j].TotalValue
	})
	if n < 0 {
		n = 0
	}
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// Find looks an item up by code.
func Find(items []models.InventoryItem, itemCode string) (models.InventoryItem, bool) {
	for _, item := range items {
		if item.ItemCode == itemCode {
			return item, true
		}
	}
	return models.InventoryItem{}, false
}

// RecentActivity merges the last k receipts and last k consumptions, newest
// first, and keeps the first m. Consumptions carry a negative value.
func RecentActivity(receipts []models.ReceiptRecord, consumptions []models.ConsumptionRecord, k, m int) []models.Activity {
	if k < 0 {
		k = 0
	}
	feed := make([]models.Activity, 0, 2*k)
	for _, r := range tail(len(receipts), k) {
		rec := receipts[r]
		feed = append(feed, models.Activity{
			Type:        models.ActivityReceipt,
			Description: fmt.Sprintf("Received %s %s of %s", formatQty(rec.QuantityReceived), rec.UnitOfMeasurement, rec.ItemName),
			Date:        rec.CreatedAt,
			Value:       rec.TotalValue,
		})
	}
	for _, c := range tail(len(consumptions), k) {
		rec := consumptions[c]
		feed = append(feed, models.Activity{
			Type:        models.ActivityConsumption,
			Description: fmt.Sprintf("Used %s units of %s for %s", formatQty(rec.QuantityUsed), rec.ItemName, rec.Purpose),
			Date:        rec.CreatedAt,
			Value:       -rec.TotalValue,
		})
	}

	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].Date.After(feed[j].Date)
	})
	if m >= 0 && m < len(feed) {
		feed = feed[:m]
	}
	return feed
}

func filter(items []models.InventoryItem, keep func(models.InventoryItem) bool) []models.InventoryItem {
	out := make([]models.InventoryItem, 0)
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// tail yields the indexes of the last k elements of a slice of length n.
func tail(n, k int) []int {
	if k <= 0 {
		return nil
	}
	start := n - k
	if start < 0 {
		start = 0
	}
	idx := make([]int, 0, n-start)
	for i := start; i < n; i++ {
		idx = append(idx, i)
	}
	return idx
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
