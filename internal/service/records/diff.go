package records

import (
	"math"

	"github.com/mamadbah2/sitestock/internal/domain/models"
)

const consistencyTolerance = 1e-6

type changeSet map[string]models.FieldChange

func (c changeSet) text(field, from, to string) {
	if from != to {
		c[field] = models.FieldChange{From: from, To: to}
	}
}

func (c changeSet) number(field string, from, to float64) {
	if from != to {
		c[field] = models.FieldChange{From: from, To: to}
	}
}

func receiptChanges(before, after models.ReceiptRecord) map[string]models.FieldChange {
	c := changeSet{}
	c.text("item_code", before.ItemCode, after.ItemCode)
	c.text("item_name", before.ItemName, after.ItemName)
	c.number("quantity_received", before.QuantityReceived, after.QuantityReceived)
	c.number("rate_per_unit", before.RatePerUnit, after.RatePerUnit)
	c.text("unit_of_measurement", before.UnitOfMeasurement, after.UnitOfMeasurement)
	c.number("total_value", before.TotalValue, after.TotalValue)
	c.text("supplier_name", before.SupplierName, after.SupplierName)
	c.text("delivery_date", before.DeliveryDate, after.DeliveryDate)
	c.text("received_by", before.ReceivedBy, after.ReceivedBy)
	return c
}

func consumptionChanges(before, after models.ConsumptionRecord) map[string]models.FieldChange {
	c := changeSet{}
	c.text("item_code", before.ItemCode, after.ItemCode)
	c.text("item_name", before.ItemName, after.ItemName)
	c.number("quantity_used", before.QuantityUsed, after.QuantityUsed)
	c.text("purpose", before.Purpose, after.Purpose)
	c.text("activity_code", before.ActivityCode, after.ActivityCode)
	c.text("used_by", before.UsedBy, after.UsedBy)
	c.text("date", before.Date, after.Date)
	c.text("remarks", before.Remarks, after.Remarks)
	c.number("rate_per_unit", before.RatePerUnit, after.RatePerUnit)
	c.number("total_value", before.TotalValue, after.TotalValue)
	return c
}

// compareInventory lists items missing from, extra in, or different in stored.
func compareInventory(computed, stored []models.InventoryItem) []models.InventoryMismatch {
	byCode := make(map[string]models.InventoryItem, len(stored))
	for _, item := range stored {
		byCode[item.ItemCode] = item
	}

	mismatches := []models.InventoryMismatch{}
	seen := make(map[string]struct{}, len(computed))
	for _, want := range computed {
		seen[want.ItemCode] = struct{}{}
		got, ok := byCode[want.ItemCode]
		if !ok {
			mismatches = append(mismatches, models.InventoryMismatch{ItemCode: want.ItemCode, Reason: "missing", Computed: &want})
			continue
		}
		if !sameItem(want, got) {
			mismatches = append(mismatches, models.InventoryMismatch{ItemCode: want.ItemCode, Reason: "mismatch", Computed: &want, Stored: &got})
		}
	}
	for _, got := range stored {
		if _, ok := seen[got.ItemCode]; !ok {
			mismatches = append(mismatches, models.InventoryMismatch{ItemCode: got.ItemCode, Reason: "unexpected", Stored: &got})
		}
	}
	return mismatches
}

func sameItem(a, b models.InventoryItem) bool {
	return a.ItemName == b.ItemName &&
		a.UnitOfMeasurement == b.UnitOfMeasurement &&
		closeTo(a.CurrentStock, b.CurrentStock) &&
		closeTo(a.LastRatePerUnit, b.LastRatePerUnit) &&
		closeTo(a.TotalValue, b.TotalValue) &&
		a.LastUpdated.Equal(b.LastUpdated)
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) <= consistencyTolerance
}
