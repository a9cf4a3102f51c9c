package models

import "time"

// InventoryItem is the derived on-hand position of one item code. It is
// recomputed from receipts and consumptions and never edited directly.
type InventoryItem struct {
	ItemCode          string    `bson:"_id" json:"item_code"`
	ItemName          string    `bson:"item_name" json:"item_name"`
	CurrentStock      float64   `bson:"current_stock" json:"current_stock"`
	UnitOfMeasurement string    `bson:"unit_of_measurement" json:"unit_of_measurement"`
	LastRatePerUnit   float64   `bson:"last_rate_per_unit" json:"last_rate_per_unit"`
	TotalValue        float64   `bson:"total_value" json:"total_value"`
	LastUpdated       time.Time `bson:"last_updated" json:"last_updated"`
}

// InventoryState is one read of both record streams with the inventory folded from it.
type InventoryState struct {
	Receipts     []Stored[ReceiptRecord]
	Consumptions []Stored[ConsumptionRecord]
	Items        []InventoryItem
}

// ActivityType distinguishes entries of the recent activity feed.
type ActivityType string

const (
	ActivityReceipt     ActivityType = "receipt"
	ActivityConsumption ActivityType = "consumption"
)

// Activity is one signed entry of the recent activity feed.
type Activity struct {
	Type        ActivityType `json:"type"`
	Description string       `json:"description"`
	Date        time.Time    `json:"date"`
	Value       float64      `json:"value"`
}

// InventoryMismatch describes one item where the computed snapshot and the
// stored materialized view disagree.
type InventoryMismatch struct {
	ItemCode string         `json:"item_code"`
	Reason   string         `json:"reason"`
	Computed *InventoryItem `json:"computed,omitempty"`
	Stored   *InventoryItem `json:"stored,omitempty"`
}

// ConsistencyReport is the outcome of comparing computed and stored inventory.
type ConsistencyReport struct {
	CheckedAt  time.Time           `json:"checked_at"`
	Consistent bool                `json:"consistent"`
	Mismatches []InventoryMismatch `json:"mismatches"`
}
